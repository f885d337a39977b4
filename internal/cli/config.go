// Package cli implements the digitduel command line client for the server's
// HTTP API and WebSocket stream
package cli

import "os"

// Config holds CLI configuration
type Config struct {
	ServerURL string
	AdminKey  string
	Output    string
	Verbose   bool
}

// DefaultConfig returns CLI defaults, honoring environment variables
func DefaultConfig() *Config {
	cfg := &Config{
		ServerURL: "http://localhost:8080",
		Output:    "text",
	}

	if server := os.Getenv("DIGITDUEL_SERVER"); server != "" {
		cfg.ServerURL = server
	}
	if key := os.Getenv("DIGITDUEL_ADMIN_KEY"); key != "" {
		cfg.AdminKey = key
	}

	return cfg
}
