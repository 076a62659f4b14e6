package db

import (
	"fmt"

	"github.com/PokemonFusion/Fusion2-sub001/config"
	dbmysql "github.com/PokemonFusion/Fusion2-sub001/db/mysql"
	dbsqlite "github.com/PokemonFusion/Fusion2-sub001/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// MemoryDSN opens a private in-memory SQLite database.
const MemoryDSN = "file::memory:"

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite, "":
		path := cfg.SQLitePath
		if path == "" {
			path = MemoryDSN
		}
		return dbsqlite.Open(path)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
