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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/tomoncle/relmap/database"
	"github.com/tomoncle/relmap/types"
)

const albumsDDL = `CREATE TABLE albums (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	artist TEXT,
	release_year INTEGER
)`

var albumOpts = cmp.Options{
	cmpopts.IgnoreUnexported(testAlbum{}),
	cmpopts.IgnoreFields(testAlbum{}, "Tracks"),
}

// testDB opens a single-connection in-memory sqlite database and runs ddl.
func testDB(t *testing.T, ddl ...string) (*bun.DB, context.Context) {
	t.Helper()
	sqldb, err := sql.Open(database.SQLiteDriverName, ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("failed to run ddl: %v", err)
		}
	}
	return db, ctx
}

func albumRepo(t *testing.T) (*BaseRepository[testAlbum, int], context.Context) {
	t.Helper()
	db, ctx := testDB(t, albumsDDL)
	repo, err := NewRepository[testAlbum, int](db)
	require.NoError(t, err)
	return repo, ctx
}

func countRows(t *testing.T, repo *BaseRepository[testAlbum, int], ctx context.Context) int64 {
	t.Helper()
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	return n
}

func TestRepositoryImplementsInterface(t *testing.T) {
	var _ Repository[testAlbum, int] = (*BaseRepository[testAlbum, int])(nil)
}

func TestNewRepositoryConfigurationErrors(t *testing.T) {
	db, _ := testDB(t)

	_, err := NewRepository[twoIdentifiers, int](db)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewRepository[noIdentifier, int](db)
	assert.True(t, errors.Is(err, ErrConfiguration))

	_, err = NewRepository[testAlbum, string](db)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Reason, "repository expects string")
}

func TestInsertFindByIDRoundTrip(t *testing.T) {
	repo, ctx := albumRepo(t)

	want := &testAlbum{ID: 7, Title: "Kind of Blue", Artist: "Miles Davis", Year: 1959, Tracks: []string{"So What"}, secret: "x"}
	n, err := repo.Insert(ctx, want)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, ok, err := repo.FindByID(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	if diff := cmp.Diff(want, got, albumOpts); diff != "" {
		t.Errorf("FindByID mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, got.Tracks, "ignored fields are never read")
	assert.Empty(t, got.secret)
}

func TestFindByIDMissing(t *testing.T) {
	repo, ctx := albumRepo(t)

	got, ok, err := repo.FindByID(ctx, 404)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestFindAll(t *testing.T) {
	repo, ctx := albumRepo(t)

	albums, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, albums)

	want := []*testAlbum{
		{ID: 1, Title: "Abbey Road", Artist: "The Beatles", Year: 1969},
		{ID: 2, Title: "Blue Train", Artist: "John Coltrane", Year: 1958},
	}
	for _, a := range want {
		_, err := repo.Insert(ctx, a)
		require.NoError(t, err)
	}

	albums, err = repo.FindAll(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, albums, albumOpts); diff != "" {
		t.Errorf("FindAll mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate(t *testing.T) {
	repo, ctx := albumRepo(t)
	_, err := repo.Insert(ctx, &testAlbum{ID: 3, Title: "Before", Artist: "A", Year: 2000})
	require.NoError(t, err)

	n, err := repo.Update(ctx, &testAlbum{ID: 3, Title: "After", Artist: "B", Year: 2001})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.Update(ctx, &testAlbum{ID: 99, Title: "Nobody"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	got, ok, err := repo.FindByID(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, "B", got.Artist)
	assert.Equal(t, 2001, got.Year)
}

func TestSave(t *testing.T) {
	repo, ctx := albumRepo(t)

	// Unset identifier: a plain insert.
	n, err := repo.Save(ctx, &testAlbum{Title: "Zero", Artist: "Z"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 1, countRows(t, repo, ctx))

	// Identifier set, row absent: insert.
	e := &testAlbum{ID: 10, Title: "Original", Artist: "X", Year: 1990}
	n, err = repo.Save(ctx, e)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// Same identifier, other field changed: update.
	changed := *e
	changed.Title = "Changed"
	n, err = repo.Save(ctx, &changed)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 2, countRows(t, repo, ctx))

	got, ok, err := repo.FindByID(ctx, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Changed", got.Title)
}

func TestSaveUnsetIdentifierTwiceConflicts(t *testing.T) {
	repo, ctx := albumRepo(t)

	_, err := repo.Save(ctx, &testAlbum{Title: "first"})
	require.NoError(t, err)

	// The zero identifier always means insert, so the second save collides.
	_, err = repo.Save(ctx, &testAlbum{Title: "second"})
	require.Error(t, err)

	var repoErr *RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, OpInsert, repoErr.Op)
	assert.Equal(t, database.DuplicateKeyErr, repoErr.Kind)
	assert.True(t, errors.Is(err, ErrRepository))
}

func TestUpsert(t *testing.T) {
	repo, ctx := albumRepo(t)

	n, err := repo.Upsert(ctx, &testAlbum{ID: 5, Title: "One", Artist: "A", Year: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.Upsert(ctx, &testAlbum{ID: 5, Title: "Two", Artist: "B", Year: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.EqualValues(t, 1, countRows(t, repo, ctx))

	got, _, err := repo.FindByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, &testAlbum{ID: 5, Title: "Two", Artist: "B", Year: 2}, got)
}

func TestDelete(t *testing.T) {
	repo, ctx := albumRepo(t)
	a := &testAlbum{ID: 1, Title: "gone"}
	_, err := repo.Insert(ctx, a)
	require.NoError(t, err)

	n, err := repo.DeleteByID(ctx, 12345)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	exists, err := repo.ExistsByID(ctx, 1)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err = repo.Delete(ctx, a)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	exists, err = repo.ExistsByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNilEntity(t *testing.T) {
	repo, ctx := albumRepo(t)
	for name, op := range map[string]func(context.Context, *testAlbum) (int64, error){
		OpInsert: repo.Insert,
		OpUpdate: repo.Update,
		OpSave:   repo.Save,
		OpUpsert: repo.Upsert,
		OpDelete: repo.Delete,
	} {
		_, err := op(ctx, nil)
		var bindErr *DataBindingError
		require.True(t, errors.As(err, &bindErr), name)
		assert.Equal(t, name, bindErr.Op)
	}
}

func TestRepositoryErrorOnMissingTable(t *testing.T) {
	db, ctx := testDB(t)
	repo, err := NewRepository[testAlbum, int](db)
	require.NoError(t, err)

	_, err = repo.FindAll(ctx)
	var repoErr *RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, OpFindAll, repoErr.Op)
	assert.Equal(t, "albums", repoErr.Table)
	assert.Equal(t, database.NoTableErr, repoErr.Kind)
	assert.NotNil(t, errors.Unwrap(err))

	_, err = repo.Insert(ctx, &testAlbum{ID: 1})
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, OpInsert, repoErr.Op)
}

func TestMapRowBindingErrors(t *testing.T) {
	tests := map[string]struct {
		seed   string
		query  string
		field  string
		column string
	}{
		"missing column": {
			query:  "SELECT id, name, release_year FROM albums",
			field:  "Artist",
			column: "artist",
		},
		"null into string": {
			seed:   "INSERT INTO albums (id, name, artist, release_year) VALUES (1, 'x', NULL, 1999)",
			query:  "SELECT * FROM albums",
			field:  "Artist",
			column: "artist",
		},
		"text into int": {
			seed:   "INSERT INTO albums (id, name, artist, release_year) VALUES (1, 'x', 'y', 'nineteen')",
			query:  "SELECT * FROM albums",
			field:  "Year",
			column: "release_year",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			repo, ctx := albumRepo(t)
			if tc.seed != "" {
				_, err := repo.DB().ExecContext(ctx, tc.seed)
				require.NoError(t, err)
			}

			_, err := repo.Query(ctx, OpQuery, tc.query)
			var bindErr *DataBindingError
			require.True(t, errors.As(err, &bindErr), "got %v", err)
			assert.True(t, errors.Is(err, ErrDataBinding))
			assert.Equal(t, OpQuery, bindErr.Op)
			assert.Equal(t, tc.field, bindErr.Field)
			assert.Equal(t, tc.column, bindErr.Column)
		})
	}
}

func TestMapRowIgnoresExtraColumns(t *testing.T) {
	repo, ctx := albumRepo(t)
	_, err := repo.Insert(ctx, &testAlbum{ID: 1, Title: "t", Artist: "a", Year: 2})
	require.NoError(t, err)

	rows, err := repo.DB().QueryContext(ctx, "SELECT 'extra' AS note, * FROM albums")
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next())
	got, err := repo.MapRow(rows)
	require.NoError(t, err)
	assert.Equal(t, &testAlbum{ID: 1, Title: "t", Artist: "a", Year: 2}, got)
	require.NoError(t, rows.Err())
}

func TestListAndPage(t *testing.T) {
	repo, ctx := albumRepo(t)
	for i := 1; i <= 5; i++ {
		_, err := repo.Insert(ctx, &testAlbum{ID: i, Title: "album", Artist: "a", Year: 1990 + i})
		require.NoError(t, err)
	}

	recent, err := repo.List(ctx, types.NewQueryFilter("? > ?", bun.Ident("release_year"), 1993))
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	page, err := repo.Page(ctx, types.NewPageRequestWithOrders(2, 2, "release_year DESC"))
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages())
	require.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Items[0].ID)
	assert.Equal(t, 2, page.Items[1].ID)

	_, err = repo.Page(ctx, types.NewPageRequestWithOrders(1, 2, "tracks"))
	var bindErr *DataBindingError
	require.True(t, errors.As(err, &bindErr))
	assert.Equal(t, "tracks", bindErr.Column)

	empty, err := repo.Page(ctx, types.NewPageRequestWithFilter(1, 2, types.NewQueryFilter("? < ?", bun.Ident("release_year"), 0)))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Items)
}
