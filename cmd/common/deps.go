// Package common provides shared utilities for command implementations.
package common

import (
	"errors"

	"github.com/3bdelKhale2/Link-chatbot/internal/config"
	"github.com/3bdelKhale2/Link-chatbot/internal/logger"
)

// ErrLoggerRequired is returned when a command is built without a logger.
var ErrLoggerRequired = errors.New("logger is required")

// ErrConfigRequired is returned when a command is built without configuration.
var ErrConfigRequired = errors.New("config is required")

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}

	if d.Config == nil {
		return ErrConfigRequired
	}

	return nil
}

// BuildDeps loads configuration and constructs the logger every command
// shares.
func BuildDeps(cfgFile string, debug bool) (CommandDeps, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return CommandDeps{}, err
	}

	logCfg := cfg.Logging
	if debug {
		logCfg.Level = "debug"
		logCfg.Development = true
	}

	return CommandDeps{Logger: logger.New(logCfg), Config: cfg}, nil
}
