/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/suparena/entityfile/errors"
)

const (
	// DefaultFile is read when no config path is given and it exists.
	DefaultFile = "entityfile.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ENTITYFILE_"
)

// Backend names.
const (
	BackendFile     = "file"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
)

// Write modes of the file backend.
const (
	WriteAtomic = "atomic"
	WriteDirect = "direct"
)

// Config holds the settings for opening the snapshot and running the console.
type Config struct {
	File      string   `yaml:"file" env:"FILE"`
	Backend   string   `yaml:"backend" env:"BACKEND"`
	WriteMode string   `yaml:"write_mode" env:"WRITE_MODE"`
	LogLevel  string   `yaml:"log_level" env:"LOG_LEVEL"`
	DynamoDB  DynamoDB `yaml:"dynamodb" envPrefix:"DYNAMODB_"`
}

// DynamoDB holds the table and connection settings for the dynamodb backend.
type DynamoDB struct {
	Table     string `yaml:"table" env:"TABLE"`
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		File:      "file.json",
		Backend:   BackendFile,
		WriteMode: WriteAtomic,
		LogLevel:  "warn",
	}
}

// Load builds the configuration: defaults, then the YAML file at path, then
// a .env file in the working directory, then ENTITYFILE_* variables.
// An empty path reads DefaultFile if present; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := cfg.decodeYAML(data); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeYAML(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Validate checks that the selected backend is usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFile:
		if c.File == "" {
			return errors.NewValidationError("file", "path required for the file backend")
		}
		if c.WriteMode != WriteAtomic && c.WriteMode != WriteDirect {
			return errors.NewValidationError("write_mode", fmt.Sprintf("unknown write mode %q", c.WriteMode))
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return errors.NewValidationError("dynamodb.table", "table required for the dynamodb backend")
		}
	case BackendMemory:
	default:
		return errors.NewValidationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}

	if _, err := c.Level(); err != nil {
		return errors.NewValidationError("log_level", err.Error())
	}
	return nil
}

// Level returns LogLevel as a zap level.
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.LogLevel)
}
