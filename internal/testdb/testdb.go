// Package testdb provides an in-memory SQLite database with the Playlists
// schema for package tests. The queries issued by the repository are plain
// placeholder SQL, so they run unchanged on SQLite.
package testdb

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE Playlists (
	PlaylistID INTEGER PRIMARY KEY AUTOINCREMENT,
	Name TEXT NOT NULL,
	SongIDs TEXT NOT NULL,
	Creator TEXT NOT NULL
);`

// Open creates a fresh database and registers its cleanup on t.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// :memory: 每个连接都是独立的库
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// InsertRaw writes a row bypassing the repository, for corrupt-data cases.
func InsertRaw(t *testing.T, conn *sql.DB, name, songIDs, creator string) int64 {
	t.Helper()

	res, err := conn.Exec(`INSERT INTO Playlists (Name, SongIDs, Creator) VALUES (?, ?, ?)`, name, songIDs, creator)
	if err != nil {
		t.Fatalf("failed to insert raw row: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("failed to get raw row id: %v", err)
	}
	return id
}

// SongIDsColumn reads the stored SongIDs string for id.
func SongIDsColumn(t *testing.T, conn *sql.DB, id int64) string {
	t.Helper()

	var s string
	if err := conn.QueryRow(`SELECT SongIDs FROM Playlists WHERE PlaylistID = ?`, id).Scan(&s); err != nil {
		t.Fatalf("failed to read SongIDs for %d: %v", id, err)
	}
	return s
}
