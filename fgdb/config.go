package fgdb

import "fgtools.fluvialgeomorph.org/internal/appconf"

// Config holds configuration options for the Client
type Config struct {
	DBPath  string // Path to the SQLite workspace file
	Env     appconf.Environment
	verbose bool
}

func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:  dbPath,
		Env:     env,
		verbose: verbose,
	}
}
