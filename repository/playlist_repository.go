package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wildcats/logger"
	"wildcats/metrics"
	"wildcats/model"
)

// ErrPlaylistNotFound LoadByID 找不到对应行
var ErrPlaylistNotFound = errors.New("playlist not found")

// PlaylistRepository 定义歌单相关的数据库操作接口
//
// AddSong/RemoveSong 基于调用方手里的副本做读-改-写，不加锁。
// 两个调用方各自加载同一个歌单并修改时，后一次 Update 覆盖前一次。
type PlaylistRepository interface {
	// LoadByID 根据ID加载歌单，不存在时返回 ErrPlaylistNotFound
	LoadByID(ctx context.Context, id int64) (*model.Playlist, error)

	// Fetch 根据ID获取歌单，不存在时返回 (nil, nil)
	Fetch(ctx context.Context, id int64) (*model.Playlist, error)

	// List 列出歌单，creator 为空时返回全部
	List(ctx context.Context, creator string) ([]*model.Playlist, error)

	// Create 插入新歌单，返回生成的ID并回填到 p.ID
	Create(ctx context.Context, p *model.Playlist) (int64, error)

	// Update 用内存中的值覆盖 p.ID 对应的行
	Update(ctx context.Context, p *model.Playlist) error

	// Delete 删除 p.ID 对应的行，行不存在时不报错
	Delete(ctx context.Context, p *model.Playlist) error

	// AddSong 追加歌曲并立即持久化
	AddSong(ctx context.Context, p *model.Playlist, songID int64) error

	// RemoveSong 移除歌曲并立即持久化
	RemoveSong(ctx context.Context, p *model.Playlist, songID int64) error
}

// MySQLPlaylistRepository MySQL实现的歌单仓库
type MySQLPlaylistRepository struct {
	db *sql.DB
}

// NewMySQLPlaylistRepository 创建新的MySQL歌单仓库实例
func NewMySQLPlaylistRepository(db *sql.DB) *MySQLPlaylistRepository {
	return &MySQLPlaylistRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row rowScanner) (*model.Playlist, error) {
	var (
		p       model.Playlist
		songIDs string
	)
	if err := row.Scan(&p.ID, &p.Name, &songIDs, &p.Creator); err != nil {
		return nil, err
	}

	ids, err := model.ParseSongIDs(songIDs)
	if err != nil {
		return nil, fmt.Errorf("playlist %d: %w", p.ID, err)
	}
	p.SongIDs = ids
	return &p, nil
}

// Fetch 根据ID获取歌单
func (r *MySQLPlaylistRepository) Fetch(ctx context.Context, id int64) (p *model.Playlist, err error) {
	defer func(start time.Time) { metrics.RecordStoreOperation("fetch", start, err) }(time.Now())

	query := `SELECT PlaylistID, Name, SongIDs, Creator FROM Playlists WHERE PlaylistID = ?`

	p, err = scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch playlist %d: %w", id, err)
	}
	return p, nil
}

// LoadByID 根据ID加载歌单
func (r *MySQLPlaylistRepository) LoadByID(ctx context.Context, id int64) (*model.Playlist, error) {
	p, err := r.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: id %d", ErrPlaylistNotFound, id)
	}
	return p, nil
}

// List 列出歌单
func (r *MySQLPlaylistRepository) List(ctx context.Context, creator string) (playlists []*model.Playlist, err error) {
	defer func(start time.Time) { metrics.RecordStoreOperation("list", start, err) }(time.Now())

	query := `SELECT PlaylistID, Name, SongIDs, Creator FROM Playlists`
	var args []any
	if creator != "" {
		query += ` WHERE Creator = ?`
		args = append(args, creator)
	}
	query += ` ORDER BY PlaylistID`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playlists: %w", err)
	}
	return playlists, nil
}

// Create 插入新歌单
func (r *MySQLPlaylistRepository) Create(ctx context.Context, p *model.Playlist) (id int64, err error) {
	defer func(start time.Time) { metrics.RecordStoreOperation("create", start, err) }(time.Now())

	if err := p.Validate(); err != nil {
		return 0, err
	}

	query := `INSERT INTO Playlists (Name, SongIDs, Creator) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.SongIDs.String(), p.Creator)
	if err != nil {
		return 0, fmt.Errorf("failed to insert playlist: %w", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}
	p.ID = id

	logger.Debug("Playlist created",
		logger.Int64("playlistId", id),
		logger.String("name", p.Name),
		logger.String("creator", p.Creator))
	return id, nil
}

// Update 覆盖歌单的全部列。行不存在时只记录日志，不返回错误。
func (r *MySQLPlaylistRepository) Update(ctx context.Context, p *model.Playlist) (err error) {
	defer func(start time.Time) { metrics.RecordStoreOperation("update", start, err) }(time.Now())

	if err := p.Validate(); err != nil {
		return err
	}

	query := `UPDATE Playlists SET Name = ?, SongIDs = ?, Creator = ? WHERE PlaylistID = ?`
	res, err := r.db.ExecContext(ctx, query, p.Name, p.SongIDs.String(), p.Creator, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update playlist %d: %w", p.ID, err)
	}

	// MySQL 在值未变化时同样报告 0 行
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Debug("Playlist update affected no rows", logger.Int64("playlistId", p.ID))
	}
	return nil
}

// Delete 删除歌单
func (r *MySQLPlaylistRepository) Delete(ctx context.Context, p *model.Playlist) (err error) {
	defer func(start time.Time) { metrics.RecordStoreOperation("delete", start, err) }(time.Now())

	query := `DELETE FROM Playlists WHERE PlaylistID = ?`
	if _, err := r.db.ExecContext(ctx, query, p.ID); err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", p.ID, err)
	}
	return nil
}

// AddSong 追加歌曲到歌单末尾
func (r *MySQLPlaylistRepository) AddSong(ctx context.Context, p *model.Playlist, songID int64) error {
	return mutateSongs(ctx, r, p, func(ids model.SongIDs) (model.SongIDs, error) {
		return appendSong(ids, songID)
	})
}

// RemoveSong 从歌单中移除歌曲
func (r *MySQLPlaylistRepository) RemoveSong(ctx context.Context, p *model.Playlist, songID int64) error {
	return mutateSongs(ctx, r, p, func(ids model.SongIDs) (model.SongIDs, error) {
		return removeSong(ids, songID)
	})
}

func appendSong(ids model.SongIDs, songID int64) (model.SongIDs, error) {
	if ids.Contains(songID) {
		return nil, fmt.Errorf("%w: song %d", model.ErrDuplicateSong, songID)
	}
	out := make(model.SongIDs, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, songID), nil
}

func removeSong(ids model.SongIDs, songID int64) (model.SongIDs, error) {
	idx := ids.IndexOf(songID)
	if idx == -1 {
		return nil, fmt.Errorf("%w: song %d", model.ErrSongNotFound, songID)
	}
	out := make(model.SongIDs, 0, len(ids)-1)
	out = append(out, ids[:idx]...)
	return append(out, ids[idx+1:]...), nil
}

// updater 是 mutateSongs 需要的最小能力
type updater interface {
	Update(ctx context.Context, p *model.Playlist) error
}

// mutateSongs 修改内存中的歌曲列表并立即持久化。
// 校验失败时不写库；写库失败时恢复原来的列表。
func mutateSongs(ctx context.Context, u updater, p *model.Playlist, fn func(model.SongIDs) (model.SongIDs, error)) error {
	next, err := fn(p.SongIDs)
	if err != nil {
		return err
	}

	prev := p.SongIDs
	p.SongIDs = next
	if err := u.Update(ctx, p); err != nil {
		p.SongIDs = prev
		return err
	}
	return nil
}
