package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMalformedSongIDs SongIDs 列无法解析为逗号分隔的整数列表
	ErrMalformedSongIDs = errors.New("malformed song id list")
	// ErrDuplicateSong 歌曲已经在歌单中
	ErrDuplicateSong = errors.New("song already exists in the playlist")
	// ErrSongNotFound 歌曲不在歌单中
	ErrSongNotFound = errors.New("song does not exist in the playlist")
)

// SongIDs 歌单中有序的歌曲ID列表，持久化为 "3,17,42" 形式的字符串
type SongIDs []int64

// ParseSongIDs 解析逗号分隔的歌曲ID字符串。空字符串对应空列表。
func ParseSongIDs(s string) (SongIDs, error) {
	if strings.TrimSpace(s) == "" {
		return SongIDs{}, nil
	}

	parts := strings.Split(s, ",")
	ids := make(SongIDs, 0, len(parts))
	for i, part := range parts {
		token := strings.TrimSpace(part)
		id, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d (%q): %v", ErrMalformedSongIDs, i, token, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// String 序列化为数据库存储格式
func (s SongIDs) String() string {
	if len(s) == 0 {
		return ""
	}
	parts := make([]string, len(s))
	for i, id := range s {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// IndexOf 返回歌曲所在位置，不存在时返回 -1
func (s SongIDs) IndexOf(id int64) int {
	for i, v := range s {
		if v == id {
			return i
		}
	}
	return -1
}

// Contains 判断歌曲是否在列表中
func (s SongIDs) Contains(id int64) bool {
	return s.IndexOf(id) != -1
}

// Duplicate 返回第一个重复出现的歌曲ID
func (s SongIDs) Duplicate() (int64, bool) {
	seen := make(map[int64]struct{}, len(s))
	for _, id := range s {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return 0, false
}

// Playlist 表示 Playlists 表中的一行
type Playlist struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	SongIDs SongIDs `json:"songIds"`
	Creator string  `json:"creator"`
}

// NewPlaylist 创建一个尚未持久化的歌单
func NewPlaylist(name, creator string, songIDs ...int64) *Playlist {
	ids := make(SongIDs, 0, len(songIDs))
	ids = append(ids, songIDs...)
	return &Playlist{
		Name:    name,
		SongIDs: ids,
		Creator: creator,
	}
}

// Validate 检查歌单中没有重复歌曲
func (p *Playlist) Validate() error {
	if id, dup := p.SongIDs.Duplicate(); dup {
		return fmt.Errorf("%w: song %d", ErrDuplicateSong, id)
	}
	return nil
}

// PlaylistRow 是 Playlists 表的 GORM 映射，仅用于建表迁移
type PlaylistRow struct {
	PlaylistID int64  `gorm:"column:PlaylistID;primaryKey;autoIncrement"`
	Name       string `gorm:"column:Name;size:255;not null"`
	SongIDs    string `gorm:"column:SongIDs;type:text;not null"`
	Creator    string `gorm:"column:Creator;size:255;not null"`
}

// TableName 指定表名
func (PlaylistRow) TableName() string {
	return "Playlists"
}
