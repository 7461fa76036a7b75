package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"wildcats/logger"
	"wildcats/model"
	"wildcats/repository"

	"github.com/gorilla/mux"
)

// PlaylistHandler 处理歌单相关的请求
type PlaylistHandler struct {
	repo repository.PlaylistRepository
}

// NewPlaylistHandler 创建歌单处理器
func NewPlaylistHandler(repo repository.PlaylistRepository) *PlaylistHandler {
	return &PlaylistHandler{repo: repo}
}

// playlistRequest 创建/更新歌单的请求体
type playlistRequest struct {
	Name    string  `json:"name"`
	SongIDs []int64 `json:"songIds"`
	Creator string  `json:"creator"`
}

type songRequest struct {
	SongID *int64 `json:"songId"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError 把存储层错误映射为 HTTP 状态码
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrPlaylistNotFound):
		writeError(w, http.StatusNotFound, "playlist not found")
	case errors.Is(err, model.ErrSongNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrDuplicateSong):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrMalformedSongIDs):
		logger.Error("Playlist row has corrupt SongIDs",
			logger.String("path", r.URL.Path),
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "corrupt playlist data")
	default:
		logger.Error("Playlist store operation failed",
			logger.String("path", r.URL.Path),
			logger.String("requestId", RequestIDFromContext(r.Context())),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathInt(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// loadFromPath 按路径中的 {id} 加载歌单，失败时已写出响应
func (h *PlaylistHandler) loadFromPath(w http.ResponseWriter, r *http.Request) (*model.Playlist, bool) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return nil, false
	}
	p, err := h.repo.LoadByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err)
		return nil, false
	}
	return p, true
}

// ListPlaylists GET /api/playlists?creator=
func (h *PlaylistHandler) ListPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.repo.List(r.Context(), r.URL.Query().Get("creator"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if playlists == nil {
		playlists = []*model.Playlist{}
	}
	writeJSON(w, http.StatusOK, playlists)
}

// CreatePlaylist POST /api/playlists
func (h *PlaylistHandler) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Creator == "" {
		writeError(w, http.StatusBadRequest, "name and creator are required")
		return
	}

	p := model.NewPlaylist(req.Name, req.Creator, req.SongIDs...)
	id, err := h.repo.Create(r.Context(), p)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	logger.Info("Playlist created", logger.Int64("playlistId", id), logger.String("creator", p.Creator))
	writeJSON(w, http.StatusCreated, p)
}

// GetPlaylist GET /api/playlists/{id}
func (h *PlaylistHandler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePlaylist PUT /api/playlists/{id}，未提供的字段保持原值
func (h *PlaylistHandler) UpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadFromPath(w, r)
	if !ok {
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Creator != "" {
		p.Creator = req.Creator
	}
	if req.SongIDs != nil {
		p.SongIDs = model.SongIDs(req.SongIDs)
	}

	if err := h.repo.Update(r.Context(), p); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlaylist DELETE /api/playlists/{id}
func (h *PlaylistHandler) DeletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	if err := h.repo.Delete(r.Context(), &model.Playlist{ID: id}); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSong POST /api/playlists/{id}/songs
func (h *PlaylistHandler) AddSong(w http.ResponseWriter, r *http.Request) {
	var req songRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SongID == nil {
		writeError(w, http.StatusBadRequest, "songId is required")
		return
	}

	p, ok := h.loadFromPath(w, r)
	if !ok {
		return
	}
	if err := h.repo.AddSong(r.Context(), p, *req.SongID); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RemoveSong DELETE /api/playlists/{id}/songs/{songId}
func (h *PlaylistHandler) RemoveSong(w http.ResponseWriter, r *http.Request) {
	songID, err := pathInt(r, "songId")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	p, ok := h.loadFromPath(w, r)
	if !ok {
		return
	}
	if err := h.repo.RemoveSong(r.Context(), p, songID); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
