// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for .env files. Every component package exposes a
// Config struct with env tags and defaults; the binary composes them and
// calls Load once at startup.
//
//	var cfg struct {
//		Directory pg.Config
//		Redis     redis.Config
//	}
//	config.MustLoad(&cfg)
//
// Parsing failures wrap ErrParsingConfig. LoadEnv reads additional .env
// files and fails when one is missing.
package config
