package db

import (
	"testing"

	"wildcats/config"

	"github.com/go-sql-driver/mysql"
)

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost:     "127.0.0.1",
		DBPort:     "3306",
		DBUser:     "root",
		DBPassword: "p@ss:word",
		DBName:     "wildcats",
	}

	dsn := DSN(cfg)

	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("generated DSN does not parse: %v", err)
	}
	if parsed.Addr != "127.0.0.1:3306" {
		t.Errorf("expected addr 127.0.0.1:3306, got %s", parsed.Addr)
	}
	if parsed.Passwd != "p@ss:word" {
		t.Errorf("expected password to round-trip, got %q", parsed.Passwd)
	}
	if parsed.DBName != "wildcats" {
		t.Errorf("expected db name wildcats, got %s", parsed.DBName)
	}
	if !parsed.ParseTime {
		t.Error("expected parseTime to be enabled")
	}
}
