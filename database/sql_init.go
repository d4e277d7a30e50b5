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
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

const (
	SchemaDropScript = "schema_drop.sql"
	SchemaInitScript = "schema_init.sql"
	commonDir        = "common"
	environmentsDir  = "environments"
	unorderedFile    = 999
)

var fileOrderPattern = regexp.MustCompile(`^(\d+)_`)

// SQLInitManager runs SQL scripts from a directory tree:
//
//	schema_drop.sql
//	schema_init.sql
//	common/NN_name.sql
//	environments/<env>/NN_name.sql
//
// Each script runs inside its own transaction.
type SQLInitManager struct {
	db          bun.IDB
	fsys        fs.FS
	environment string
	logger      Logger
}

// SQLFileInfo describes a seed file to be executed.
type SQLFileInfo struct {
	Path        string
	Name        string
	Order       int
	Environment string
}

// ExecutionResult contains the outcome of executing a single SQL file.
type ExecutionResult struct {
	File         string
	Statements   int
	RowsAffected int64
	Duration     time.Duration
	Error        error
}

func NewSQLInitManager(db bun.IDB, fsys fs.FS, environment string) *SQLInitManager {
	return &SQLInitManager{
		db:          db,
		fsys:        fsys,
		environment: environment,
		logger:      GetLogger(),
	}
}

func (s *SQLInitManager) SetLogger(logger Logger) {
	s.logger = logger
}

// DropSchema runs schema_drop.sql.
func (s *SQLInitManager) DropSchema(ctx context.Context) error {
	return s.ExecuteScript(ctx, SchemaDropScript)
}

// InitSchema runs schema_init.sql.
func (s *SQLInitManager) InitSchema(ctx context.Context) error {
	return s.ExecuteScript(ctx, SchemaInitScript)
}

// ExecuteScript runs a single named script.
func (s *SQLInitManager) ExecuteScript(ctx context.Context, name string) error {
	result := s.executeFile(ctx, name)
	if result.Error != nil {
		s.logger.Error("SQL script failed", "file", name, "error", result.Error)
		return fmt.Errorf("SQL script %s: %w", name, result.Error)
	}
	s.logger.Info("SQL script executed",
		"file", name,
		"statements", result.Statements,
		"duration", result.Duration.String(),
	)
	return nil
}

// ExecuteInitialization runs every seed file, common ones first, each group
// ordered by its numeric prefix.
func (s *SQLInitManager) ExecuteInitialization(ctx context.Context) error {
	files, err := s.GetSQLFiles()
	if err != nil {
		return fmt.Errorf("failed to get SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL seed files found", "environment", s.environment)
		return nil
	}

	for _, file := range files {
		result := s.executeFile(ctx, file.Path)
		if result.Error != nil {
			s.logger.Error("SQL file execution failed", "file", file.Path, "error", result.Error)
			return fmt.Errorf("SQL file execution failed %s: %w", file.Path, result.Error)
		}
		s.logger.Info("SQL file executed successfully",
			"file", file.Path,
			"duration", result.Duration.String(),
			"rows_affected", result.RowsAffected,
		)
	}
	s.logger.Info("SQL initialization completed", "total_files", len(files), "environment", s.environment)
	return nil
}

// GetSQLFiles lists the seed files from the common and environment directories.
func (s *SQLInitManager) GetSQLFiles() ([]SQLFileInfo, error) {
	files, err := s.getFilesFromDir(commonDir, commonDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get common SQL files: %w", err)
	}

	if s.environment != "" {
		envFiles, err := s.getFilesFromDir(path.Join(environmentsDir, s.environment), s.environment)
		if err != nil {
			return nil, fmt.Errorf("failed to get environment SQL files: %w", err)
		}
		files = append(files, envFiles...)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Environment != files[j].Environment {
			return files[i].Environment == commonDir
		}
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func (s *SQLInitManager) getFilesFromDir(dir, environment string) ([]SQLFileInfo, error) {
	var files []SQLFileInfo
	err := fs.WalkDir(s.fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			return nil
		}
		files = append(files, SQLFileInfo{
			Path:        p,
			Name:        d.Name(),
			Order:       parseFileOrder(d.Name()),
			Environment: environment,
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return files, err
}

func parseFileOrder(filename string) int {
	m := fileOrderPattern.FindStringSubmatch(filename)
	if len(m) < 2 {
		return unorderedFile
	}
	order, err := strconv.Atoi(m[1])
	if err != nil {
		return unorderedFile
	}
	return order
}

func (s *SQLInitManager) executeFile(ctx context.Context, name string) ExecutionResult {
	start := time.Now()
	result := ExecutionResult{File: name}

	content, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		result.Error = fmt.Errorf("failed to read file: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	statements := splitSQLStatements(string(content))
	result.Statements = len(statements)
	if len(statements) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	result.Error = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			// Scripts are executed verbatim; bun.Safe keeps '?' out of placeholder parsing.
			res, err := tx.ExecContext(ctx, "?", bun.Safe(stmt))
			if err != nil {
				return fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				result.RowsAffected += n
			}
		}
		return nil
	})
	result.Duration = time.Since(start)
	return result
}

// splitSQLStatements splits a script on lines ending with ';', dropping blank
// lines and "--" comment lines.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString(" ")

		if strings.HasSuffix(line, ";") {
			if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}
	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}
