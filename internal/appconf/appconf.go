// Package appconf holds settings shared by the workspace, the tools and the
// inspection server.
package appconf

import "strings"

// Environment is the operating environment of a process.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	}
	return "development"
}

// EnvFlagToEnvironment maps the -env flag value onto an Environment. Unknown
// values fall back to Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test", "testing":
		return Test
	case "production", "prod":
		return Production
	}
	return Development
}

// Config holds the settings for the inspection server.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string // empty disables key checks
	RateLimit int      // requests per second per API key
}
