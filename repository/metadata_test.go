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
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAlbum struct {
	ID     int      `db:"id,id"`
	Title  string   `db:"name"`
	Artist string
	Year   int      `db:"release_year"`
	Tracks []string `db:"-"`
	secret string
}

func (testAlbum) TableName() string { return "albums" }

type MusicAlbum struct {
	ID    int `db:",id"`
	Title string
}

type auditFields struct {
	CreatedBy string `db:"created_by"`
}

type withAudit struct {
	ID int `db:"id,id"`
	auditFields
	Note string
}

type noIdentifier struct {
	Name string `db:"name"`
}

type twoIdentifiers struct {
	A int `db:"a,id"`
	B int `db:"b,id"`
}

type duplicateColumn struct {
	ID   int    `db:"id,id"`
	Name string `db:"name"`
	Alt  string `db:"name"`
}

type embeddedPointer struct {
	ID int `db:"id,id"`
	*auditFields
}

type badColumn struct {
	ID int `db:"id;drop,id"`
}

func TestDeriveTableName(t *testing.T) {
	tests := map[string]string{
		"MusicAlbum": "music_album",
		"Id":         "id",
		"Music":      "music",
		"music":      "music",
		"BookCopyV2": "book_copy_v2",
		"":           "",
	}
	for in, want := range tests {
		assert.Equal(t, want, DeriveTableName(in), "DeriveTableName(%q)", in)
	}
}

func TestDescribe(t *testing.T) {
	tests := map[string]struct {
		typ       reflect.Type
		table     string
		idColumn  string
		columnMap map[string]string
		columns   []string
	}{
		"explicit table and columns": {
			typ:      reflect.TypeOf(testAlbum{}),
			table:    "albums",
			idColumn: "id",
			columnMap: map[string]string{
				"ID":     "id",
				"Title":  "name",
				"Artist": "artist",
				"Year":   "release_year",
			},
			columns: []string{"id", "name", "artist", "release_year"},
		},
		"derived table and default columns": {
			typ:       reflect.TypeOf(MusicAlbum{}),
			table:     "music_album",
			idColumn:  "id",
			columnMap: map[string]string{"ID": "id", "Title": "title"},
			columns:   []string{"id", "title"},
		},
		"embedded struct flattened in place": {
			typ:       reflect.TypeOf(withAudit{}),
			table:     "with_audit",
			idColumn:  "id",
			columnMap: map[string]string{"ID": "id", "CreatedBy": "created_by", "Note": "note"},
			columns:   []string{"id", "created_by", "note"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := Describe(tc.typ)
			require.NoError(t, err)
			assert.Equal(t, tc.table, d.Table)
			assert.Equal(t, tc.idColumn, d.Identifier.Column)
			if diff := cmp.Diff(tc.columnMap, d.ColumnMap()); diff != "" {
				t.Errorf("ColumnMap mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.columns, d.Columns()); diff != "" {
				t.Errorf("Columns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDescribeIgnoresFields(t *testing.T) {
	d, err := DescriptorOf[testAlbum]()
	require.NoError(t, err)

	m := d.ColumnMap()
	assert.NotContains(t, m, "Tracks")
	assert.NotContains(t, m, "secret")
	_, ok := d.FieldByColumn("tracks")
	assert.False(t, ok)
}

func TestDescribeCachesPerType(t *testing.T) {
	a, err := DescriptorOf[testAlbum]()
	require.NoError(t, err)
	b, err := Describe(reflect.TypeOf(testAlbum{}))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestDescribeConfigurationErrors(t *testing.T) {
	tests := map[string]struct {
		typ    reflect.Type
		reason string
	}{
		"no identifier":       {reflect.TypeOf(noIdentifier{}), "no identifier field"},
		"two identifiers":     {reflect.TypeOf(twoIdentifiers{}), "more than one identifier field"},
		"duplicate column":    {reflect.TypeOf(duplicateColumn{}), "duplicate column name name"},
		"embedded pointer":    {reflect.TypeOf(embeddedPointer{}), "embedded pointer"},
		"invalid column name": {reflect.TypeOf(badColumn{}), "invalid column name"},
		"not a struct":        {reflect.TypeOf(42), "expected struct"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := Describe(tc.typ)
			require.Error(t, err)
			assert.Nil(t, d)
			assert.True(t, errors.Is(err, ErrConfiguration))

			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Contains(t, cfgErr.Reason, tc.reason)
		})
	}
}

func TestTagOptions(t *testing.T) {
	name, opts := parseTag("id, id")
	assert.Equal(t, "id", name)
	assert.True(t, opts.Contains("id"))
	assert.False(t, opts.Contains("pk"))

	name, opts = parseTag("")
	assert.Empty(t, name)
	assert.False(t, opts.Contains("id"))
}
