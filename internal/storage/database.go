package storage

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"truthguard/internal/config"
)

var (
	db         *sql.DB
	dbOnce     sync.Once
	configured string
)

// SetPath selects the database file used on first access. The
// TRUTHGUARD_DB_PATH environment variable still wins when set.
func SetPath(path string) {
	configured = path
}

func resolvePath() string {
	if p := os.Getenv("TRUTHGUARD_DB_PATH"); p != "" {
		return p
	}
	if configured != "" {
		return configured
	}
	return filepath.Join(config.Dir(), "truthguard.db")
}

func initDB() error {
	var err error
	dbOnce.Do(func() {
		dbPath := resolvePath()
		if derr := os.MkdirAll(filepath.Dir(dbPath), 0755); derr != nil {
			err = derr
			return
		}
		db, err = sql.Open("sqlite", dbPath)
		if err != nil {
			return
		}

		schema := `
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			input TEXT NOT NULL,
			result_json TEXT,
			error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);`
		_, err = db.Exec(schema)
	})
	return err
}

// ResetForTest clears the db connection and init guard (for tests only).
func ResetForTest() {
	if db != nil {
		_ = db.Close()
	}
	db = nil
	dbOnce = sync.Once{}
	configured = ""
}
