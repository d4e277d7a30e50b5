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

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection, running schema scripts, and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	DropSchema(ctx context.Context) error
	InitSchema(ctx context.Context) error
	InitData(ctx context.Context) error
	GetStats() *DBStats
	SetLogger(logger Logger)
}

// AbstractDatabaseConfigProvider exposes configuration loading.
type AbstractDatabaseConfigProvider interface {
	ConfigLoader() *Config
}

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	OpenConns     int           `json:"open_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats returned by the manager.
type DBStats struct {
	MaxOpenConns int           `json:"max_open_conns"`
	OpenConns    int           `json:"open_conns"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// ConnectionConfig describes how to reach the database. Schema is applied as
// the postgres search_path so unqualified table names resolve inside it.
type ConnectionConfig struct {
	Type           string        `json:"type"` // postgres, mysql, sqlite
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	DBName         string        `json:"dbname"`
	Schema         string        `json:"schema"`
	SSLMode        string        `json:"sslmode"`
	MaxOpenConns   int           `json:"max_open_conns"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	EnableQueryLog bool          `json:"enable_query_log"`
	SlowQueryTime  time.Duration `json:"slow_query_time"`
}

// DataInitConfig controls the schema scripts and data seeding run at startup.
type DataInitConfig struct {
	ResetSchemaOnStartup bool   `json:"reset_schema_on_startup"`
	AutoInitOnStartup    bool   `json:"auto_init_on_startup"`
	Filepath             string `json:"filepath"`
	Environment          string `json:"environment"`
}

// Config aggregates connection and data initialization settings.
type Config struct {
	ConnectionConfig ConnectionConfig `json:"connection_config"`
	DataInitConfig   DataInitConfig   `json:"data_init_config"`
}

// DefaultConnectionConfig returns a postgres connection config holding a
// single connection.
func DefaultConnectionConfig() *ConnectionConfig {
	return &ConnectionConfig{
		Type:           "postgres",
		Host:           "localhost",
		Port:           5432,
		SSLMode:        "disable",
		MaxOpenConns:   1,
		ConnectTimeout: time.Second * 10,
		ReadTimeout:    time.Second * 30,
		WriteTimeout:   time.Second * 30,
		SlowQueryTime:  time.Second * 2,
	}
}
