package main

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// targetDSN normalizes the configured DSN with the connection options the
// migration requires: UTC session time, multi-row interpolation off (the
// driver sends real prepared statements), and the configured collation.
func targetDSN(t TargetConfig) (string, error) {
	cfg, err := mysql.ParseDSN(t.DSN)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return "", fmt.Errorf("target.dsn must name a database")
	}
	cfg.ParseTime = false
	cfg.InterpolateParams = false
	cfg.MultiStatements = false
	cfg.Loc = time.UTC
	cfg.Collation = t.Collation
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	cfg.Params["charset"] = t.Charset
	return cfg.FormatDSN(), nil
}

// DBName extracts the database name from the configured DSN.
func (t TargetConfig) DBName() string {
	cfg, err := mysql.ParseDSN(t.DSN)
	if err != nil {
		return ""
	}
	return cfg.DBName
}
