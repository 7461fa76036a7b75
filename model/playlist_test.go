package model

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseSongIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    SongIDs
		wantErr bool
	}{
		{"3,17,42", SongIDs{3, 17, 42}, false},
		{"42,3,17", SongIDs{42, 3, 17}, false},
		{"7", SongIDs{7}, false},
		{"", SongIDs{}, false},
		{"   ", SongIDs{}, false},
		{" 1, 2 ,3", SongIDs{1, 2, 3}, false},
		{"-5,0", SongIDs{-5, 0}, false},
		{"1,,2", nil, true},
		{"1,2,", nil, true},
		{"a,b", nil, true},
		{"1.5", nil, true},
		{"99999999999999999999", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSongIDs(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedSongIDs) {
					t.Fatalf("ParseSongIDs(%q): expected ErrMalformedSongIDs, got %v", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSongIDs(%q) returned error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSongIDs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSongIDsString(t *testing.T) {
	if got := (SongIDs{3, 17, 42}).String(); got != "3,17,42" {
		t.Errorf("expected 3,17,42, got %q", got)
	}
	if got := (SongIDs{}).String(); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := SongIDs(nil).String(); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}
}

func TestSongIDsRoundTrip(t *testing.T) {
	ids := SongIDs{3, 17, 42}
	got, err := ParseSongIDs(ids.String())
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("expected %v, got %v", ids, got)
	}
}

func TestSongIDsLookup(t *testing.T) {
	ids := SongIDs{5, 6, 7}

	if ids.IndexOf(6) != 1 {
		t.Errorf("expected index 1, got %d", ids.IndexOf(6))
	}
	if ids.IndexOf(8) != -1 {
		t.Errorf("expected -1 for absent song, got %d", ids.IndexOf(8))
	}
	if !ids.Contains(7) || ids.Contains(1) {
		t.Error("Contains returned wrong result")
	}

	if _, dup := ids.Duplicate(); dup {
		t.Error("expected no duplicate")
	}
	if id, dup := (SongIDs{1, 2, 1}).Duplicate(); !dup || id != 1 {
		t.Errorf("expected duplicate 1, got %d %v", id, dup)
	}
}

func TestPlaylistValidate(t *testing.T) {
	if err := NewPlaylist("ok", "alice", 1, 2).Validate(); err != nil {
		t.Errorf("expected valid playlist, got %v", err)
	}
	if err := NewPlaylist("dup", "alice", 1, 1).Validate(); !errors.Is(err, ErrDuplicateSong) {
		t.Errorf("expected ErrDuplicateSong, got %v", err)
	}
}

func TestNewPlaylistCopiesSongs(t *testing.T) {
	src := []int64{1, 2}
	p := NewPlaylist("x", "y", src...)
	src[0] = 99
	if p.SongIDs[0] != 1 {
		t.Error("NewPlaylist must not alias the caller's slice")
	}
	if p.ID != 0 {
		t.Errorf("expected unsaved playlist to have zero ID, got %d", p.ID)
	}
}
