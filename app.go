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

package relmap

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/tomoncle/relmap/database"
	"github.com/tomoncle/relmap/store"
)

// App owns the database connection and the repositories built on it. Nothing
// is global: every App opens its own connection.
type App struct {
	factory *database.BaseDatabaseFactory
	logger  database.Logger

	Music    *store.MusicRepository
	Books    *store.BookRepository
	Visitors *store.VisitorRepository
}

type options struct {
	scripts fs.FS
	logger  database.Logger
}

// Option configures New.
type Option func(*options)

// WithScripts reads the schema and seed scripts from fsys instead of the
// configured directory.
func WithScripts(fsys fs.FS) Option {
	return func(o *options) { o.scripts = fsys }
}

// WithLogger replaces the application logger.
func WithLogger(logger database.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New connects to the configured database, recreates the schema and seeds it
// when the configuration asks for it, and builds the repositories.
func New(ctx context.Context, provider database.AbstractDatabaseConfigProvider, opts ...Option) (*App, error) {
	o := &options{logger: database.NewDefaultLogger("RELMAP")}
	for _, opt := range opts {
		opt(o)
	}

	cfg := provider.ConfigLoader()
	factory := database.NewDatabaseFactory()
	var err error
	if o.scripts != nil {
		_, err = factory.CreateWithScripts(cfg, o.scripts)
	} else {
		_, err = factory.CreateFromConfig(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("create database manager: %w", err)
	}
	if err := factory.InitializeDatabase(ctx); err != nil {
		_ = factory.Close()
		return nil, err
	}

	app := &App{factory: factory, logger: o.logger}
	if err := app.buildRepositories(); err != nil {
		_ = factory.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) buildRepositories() error {
	db := a.factory.GetDB()
	var err error
	if a.Music, err = store.NewMusicRepository(db); err != nil {
		return err
	}
	if a.Books, err = store.NewBookRepository(db); err != nil {
		return err
	}
	if a.Visitors, err = store.NewVisitorRepository(db); err != nil {
		return err
	}
	return nil
}

// ResetSchema drops and recreates every table.
func (a *App) ResetSchema(ctx context.Context) error {
	if err := a.factory.ResetSchema(ctx); err != nil {
		return err
	}
	a.logger.Info("Schema reset")
	return nil
}

// InitData runs the seed scripts of the configured environment.
func (a *App) InitData(ctx context.Context) error {
	return a.factory.GetManager().InitData(ctx)
}

// Health pings the database.
func (a *App) Health(ctx context.Context) *database.HealthStatus {
	return a.factory.GetHealthStatus(ctx)
}

func (a *App) Logger() database.Logger { return a.logger }

// Close releases the connection.
func (a *App) Close() error {
	return a.factory.Close()
}
