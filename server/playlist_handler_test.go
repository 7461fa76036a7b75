package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"wildcats/internal/testdb"
	"wildcats/model"
	"wildcats/repository"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn := testdb.Open(t)
	srv := httptest.NewServer(NewRouter(repository.NewMySQLPlaylistRepository(conn), conn))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodePlaylist(t *testing.T, resp *http.Response) model.Playlist {
	t.Helper()
	var p model.Playlist
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("failed to decode playlist: %v", err)
	}
	return p
}

func TestPlaylistAPI(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/playlists"

	resp := doJSON(t, http.MethodPost, base, map[string]interface{}{
		"name": "Party Mix", "creator": "alice", "songIds": []int64{1, 2},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decodePlaylist(t, resp)
	if created.ID == 0 {
		t.Fatal("expected created playlist to carry its id")
	}
	item := base + "/" + strconv.FormatInt(created.ID, 10)

	resp = doJSON(t, http.MethodPost, item+"/songs", map[string]int64{"songId": 3})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add song: expected 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, item+"/songs", map[string]int64{"songId": 3})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate add: expected 409, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, item, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", resp.StatusCode)
	}
	if got := decodePlaylist(t, resp); !reflect.DeepEqual(got.SongIDs, model.SongIDs{1, 2, 3}) {
		t.Errorf("expected [1 2 3], got %v", got.SongIDs)
	}

	resp = doJSON(t, http.MethodDelete, item+"/songs/2", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("remove song: expected 200, got %d", resp.StatusCode)
	}
	if got := decodePlaylist(t, resp); !reflect.DeepEqual(got.SongIDs, model.SongIDs{1, 3}) {
		t.Errorf("expected [1 3], got %v", got.SongIDs)
	}

	resp = doJSON(t, http.MethodDelete, item+"/songs/2", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("remove absent song: expected 404, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPut, item, map[string]string{"name": "After Party"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", resp.StatusCode)
	}
	if got := decodePlaylist(t, resp); got.Name != "After Party" || got.Creator != "alice" {
		t.Errorf("unexpected update result: %+v", got)
	}

	resp = doJSON(t, http.MethodDelete, item, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, item, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", resp.StatusCode)
	}
}

func TestPlaylistAPIValidation(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/playlists"

	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
		want   int
	}{
		{"missing name", http.MethodPost, base, map[string]string{"creator": "alice"}, http.StatusBadRequest},
		{"duplicate songs", http.MethodPost, base, map[string]interface{}{"name": "x", "creator": "y", "songIds": []int64{1, 1}}, http.StatusConflict},
		{"missing song id", http.MethodPost, base + "/1/songs", map[string]string{}, http.StatusBadRequest},
		{"unknown playlist", http.MethodGet, base + "/404", nil, http.StatusNotFound},
		{"non numeric id", http.MethodGet, base + "/abc", nil, http.StatusNotFound},
		{"delete unknown playlist", http.MethodDelete, base + "/404", nil, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.method, tt.url, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
			}
		})
	}
}

func TestListPlaylistsByCreator(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/playlists"

	for _, body := range []map[string]string{
		{"name": "A", "creator": "alice"},
		{"name": "B", "creator": "bob"},
	} {
		if resp := doJSON(t, http.MethodPost, base, body); resp.StatusCode != http.StatusCreated {
			t.Fatalf("create: expected 201, got %d", resp.StatusCode)
		}
	}

	resp := doJSON(t, http.MethodGet, base+"?creator=bob", nil)
	var got []model.Playlist
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "B" {
		t.Errorf("expected only B, got %+v", got)
	}

	resp = doJSON(t, http.MethodGet, base+"?creator=nobody", nil)
	var empty []model.Playlist
	if err := json.NewDecoder(resp.Body).Decode(&empty); err != nil {
		t.Fatalf("failed to decode empty list: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty JSON array, got %v", empty)
	}
}

func TestMiddleware(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID header")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header")
	}

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp2.Body.Close()
	if got := resp2.Header.Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics: expected 200, got %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	paths := []string{"/api/playlists", "/api/playlists/1", "/api/playlists/1/songs", "/api/playlists/1/songs/7"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodOptions, srv.URL+path, nil)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", http.MethodPut)
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("expected Allow-Origin *, got %q", got)
			}
			if got := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodPut) {
				t.Errorf("expected Allow-Methods to include PUT, got %q", got)
			}
			if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "Content-Type") {
				t.Errorf("expected Allow-Headers to include Content-Type, got %q", got)
			}
		})
	}
}

// 库里的 SongIDs 无法解析时应返回 500，而不是当作不存在
func TestCorruptPlaylistRow(t *testing.T) {
	conn := testdb.Open(t)
	srv := httptest.NewServer(NewRouter(repository.NewMySQLPlaylistRepository(conn), conn))
	t.Cleanup(srv.Close)

	id := testdb.InsertRaw(t, conn, "Broken", "1,x", "alice")
	base := srv.URL + "/api/playlists/" + strconv.FormatInt(id, 10)

	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
	}{
		{"get", http.MethodGet, base, nil},
		{"update", http.MethodPut, base, map[string]string{"name": "Fixed"}},
		{"add song", http.MethodPost, base + "/songs", map[string]int64{"songId": 2}},
		{"remove song", http.MethodDelete, base + "/songs/1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.method, tt.url, tt.body)
			if resp.StatusCode != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", resp.StatusCode)
			}
			var body map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode error body: %v", err)
			}
			if body["error"] != "corrupt playlist data" {
				t.Errorf("unexpected error message %q", body["error"])
			}
		})
	}

	if got := testdb.SongIDsColumn(t, conn, id); got != "1,x" {
		t.Errorf("expected corrupt row to stay untouched, got %q", got)
	}
}
