package main

import (
	"os"

	"github.com/joho/godotenv"
)

// config is resolved as defaults -> .env -> environment -> command-line flags.
type config struct {
	SeedFile string // INI seed; empty means the embedded dataset
	LogLevel string
	LogFile  string // empty means stderr
	Archive  string
}

func defaultConfig() config {
	return config{
		LogLevel: "warn",
		Archive:  "library-archive.db",
	}
}

// loadConfig applies an optional .env file and LIBRARY_* variables over the defaults.
func loadConfig() config {
	cfg := defaultConfig()
	// A missing .env is the normal case.
	_ = godotenv.Load()

	if v := os.Getenv("LIBRARY_SEED"); v != "" {
		cfg.SeedFile = v
	}
	if v := os.Getenv("LIBRARY_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LIBRARY_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("LIBRARY_ARCHIVE"); v != "" {
		cfg.Archive = v
	}
	return cfg
}
