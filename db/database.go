package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"wildcats/config"
	"wildcats/logger"

	"github.com/go-sql-driver/mysql"
)

// DSN 根据配置生成 MySQL 连接串
func DSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// ConnectDB establishes a connection to the database.
// 返回的 *sql.DB 由调用方持有并显式注入到仓库中。
func ConnectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	conn, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(cfg.DBMaxOpen)
	conn.SetMaxIdleConns(cfg.DBMaxIdle)
	conn.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Successfully connected to the database",
		logger.String("host", cfg.DBHost),
		logger.String("database", cfg.DBName))
	return conn, nil
}

// InitDB creates the Playlists table if it doesn't exist.
func InitDB(ctx context.Context, conn *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS Playlists (
		PlaylistID INT AUTO_INCREMENT PRIMARY KEY,
		Name VARCHAR(255) NOT NULL,
		SongIDs TEXT NOT NULL,     -- 逗号分隔的歌曲ID，例如 "3,17,42"
		Creator VARCHAR(255) NOT NULL
	);
	`
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create Playlists table: %w", err)
	}

	logger.Info("Playlists table initialized successfully (or already exists)")
	return nil
}
