package mysql

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/citypulse/events-api/config"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// NewMySQLDB opens the connection pool against the events database.
// Timestamps are stored as naive UTC, so the driver is pinned to UTC and
// timezone conversion happens in the row mapper.
func NewMySQLDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	driverCfg := mysql.NewConfig()
	driverCfg.Net = "tcp"
	driverCfg.Addr = cfg.Host + ":" + strconv.Itoa(cfg.Port)
	driverCfg.User = cfg.User
	driverCfg.Passwd = cfg.Password
	driverCfg.DBName = cfg.DBName
	driverCfg.ParseTime = true
	driverCfg.Loc = time.UTC

	db, err := sql.Open("mysql", driverCfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Successfully connected to MySQL")
	return db, nil
}
