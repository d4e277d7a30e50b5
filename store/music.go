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

package store

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/tomoncle/relmap/models"
	"github.com/tomoncle/relmap/repository"
)

const (
	opFindByTitleMatching    = "findAllByTitleMatching"
	opFindByTitleNotMatching = "findAllByTitleNotMatching"
)

// MusicRepository persists models.Music and adds title pattern queries.
type MusicRepository struct {
	*repository.BaseRepository[models.Music, int]
}

func NewMusicRepository(db bun.IDB) (*MusicRepository, error) {
	base, err := repository.NewRepository[models.Music, int](db)
	if err != nil {
		return nil, err
	}
	return &MusicRepository{BaseRepository: base}, nil
}

// FindAllByTitleMatching returns the music whose title matches the regular
// expression pattern, ignoring case.
func (r *MusicRepository) FindAllByTitleMatching(ctx context.Context, pattern string) ([]*models.Music, error) {
	return r.findByTitle(ctx, opFindByTitleMatching, pattern, false)
}

// FindAllByTitleNotMatching returns the music whose title does not match the
// regular expression pattern, ignoring case.
func (r *MusicRepository) FindAllByTitleNotMatching(ctx context.Context, pattern string) ([]*models.Music, error) {
	return r.findByTitle(ctx, opFindByTitleNotMatching, pattern, true)
}

func (r *MusicRepository) findByTitle(ctx context.Context, op, pattern string, negate bool) ([]*models.Music, error) {
	title := bun.Ident(r.titleColumn())
	where, args := regexMatch(r.DB().Dialect().Name(), title, pattern)
	if negate {
		where = "NOT " + where
	}
	args = append([]interface{}{bun.Ident(r.TableName())}, args...)
	return r.Query(ctx, op, "SELECT * FROM ? WHERE "+where, args...)
}

func (r *MusicRepository) titleColumn() string {
	return r.Descriptor().ColumnMap()["Title"]
}

// regexMatch returns the dialect's case-insensitive regular expression
// predicate and its arguments.
func regexMatch(name dialect.Name, column bun.Ident, pattern string) (string, []interface{}) {
	switch name {
	case dialect.MySQL:
		return "REGEXP_LIKE(?, ?, 'i')", []interface{}{column, pattern}
	case dialect.SQLite:
		// iregexp is registered on the sqlite driver by the database package.
		return "iregexp(?, ?)", []interface{}{pattern, column}
	default:
		return "? ~* ?", []interface{}{column, pattern}
	}
}
