// Package fgdb stores the line, point and cross section datasets of a
// workspace in a single SQLite file.
package fgdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"fgtools.fluvialgeomorph.org/internal/appconf"
)

// Client is the main entry point for the workspace
type Client struct {
	config Config
	DB     *sql.DB
	runID  string
}

// NewClient opens or creates the workspace described by config and applies the
// schema.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		DB:     db,
		runID:  uuid.NewString(),
	}, nil
}

// RunID identifies this client's session. Every dataset written through the
// client is stamped with it.
func (c *Client) RunID() string {
	return c.runID
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, errors.New("test database must use in-memory storage")
	}
	if config.DBPath == "" {
		return nil, errors.New("workspace path is required")
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if config.DBPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}
	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return db, nil
}
