/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package config loads application settings with viper and turns them into
// the database configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tomoncle/relmap/database"
)

// EnvPrefix prefixes every environment override, e.g. RELMAP_DATABASE_HOST.
const EnvPrefix = "RELMAP"

// Settings is the content of application.yaml.
type Settings struct {
	Database DatabaseSettings `mapstructure:"database"`
	Data     DataSettings     `mapstructure:"data"`
	Log      LogSettings      `mapstructure:"log"`
}

type DatabaseSettings struct {
	Type           string        `mapstructure:"type"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Name           string        `mapstructure:"name"`
	Schema         string        `mapstructure:"schema"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	SSLMode        string        `mapstructure:"sslmode"`
	MaxOpenConns   int           `mapstructure:"max_open_conns"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	EnableQueryLog bool          `mapstructure:"enable_query_log"`
	SlowQueryTime  time.Duration `mapstructure:"slow_query_time"`
}

// DataSettings points at the schema scripts and the sample visitors.
type DataSettings struct {
	Scripts       string `mapstructure:"scripts"`
	Environment   string `mapstructure:"environment"`
	ResetSchema   bool   `mapstructure:"reset_schema"`
	SeedOnStartup bool   `mapstructure:"seed_on_startup"`
	Visitors      string `mapstructure:"visitors"`
}

type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	d := database.DefaultConnectionConfig()
	v.SetDefault("database.type", d.Type)
	v.SetDefault("database.host", d.Host)
	v.SetDefault("database.port", d.Port)
	v.SetDefault("database.name", "postgres")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", d.SSLMode)
	v.SetDefault("database.max_open_conns", d.MaxOpenConns)
	v.SetDefault("database.connect_timeout", d.ConnectTimeout)
	v.SetDefault("database.enable_query_log", false)
	v.SetDefault("database.slow_query_time", d.SlowQueryTime)

	v.SetDefault("data.scripts", "configs/sql")
	v.SetDefault("data.environment", "dev")
	v.SetDefault("data.reset_schema", true)
	v.SetDefault("data.seed_on_startup", false)
	v.SetDefault("data.visitors", "configs/data/books.json")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads the settings file at path. An empty path searches for
// application.yaml in the working directory and in ./configs, and falls back
// to defaults when there is none. Environment variables override both.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("application")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Validate checks the settings a connection cannot be opened without.
func (s *Settings) Validate() error {
	switch s.Database.Type {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q", s.Database.Type)
	}
	if s.Database.Type != "sqlite" && s.Database.Host == "" {
		return errors.New("database host is required")
	}
	if s.Database.Name == "" {
		return errors.New("database name is required")
	}
	if s.Database.Port < 0 || s.Database.Port > 65535 {
		return fmt.Errorf("invalid database port %d", s.Database.Port)
	}
	return nil
}

// ConfigLoader implements database.AbstractDatabaseConfigProvider.
func (s *Settings) ConfigLoader() *database.Config {
	conn := database.DefaultConnectionConfig()
	conn.Type = s.Database.Type
	conn.Host = s.Database.Host
	conn.Port = s.Database.Port
	conn.Username = s.Database.User
	conn.Password = s.Database.Password
	conn.DBName = s.Database.Name
	conn.Schema = s.Database.Schema
	conn.SSLMode = s.Database.SSLMode
	conn.EnableQueryLog = s.Database.EnableQueryLog
	if s.Database.MaxOpenConns > 0 {
		conn.MaxOpenConns = s.Database.MaxOpenConns
	}
	if s.Database.ConnectTimeout > 0 {
		conn.ConnectTimeout = s.Database.ConnectTimeout
	}
	if s.Database.SlowQueryTime > 0 {
		conn.SlowQueryTime = s.Database.SlowQueryTime
	}
	return &database.Config{
		ConnectionConfig: *conn,
		DataInitConfig: database.DataInitConfig{
			ResetSchemaOnStartup: s.Data.ResetSchema,
			AutoInitOnStartup:    s.Data.SeedOnStartup,
			Filepath:             s.Data.Scripts,
			Environment:          s.Data.Environment,
		},
	}
}
