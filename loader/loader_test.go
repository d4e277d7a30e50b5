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

package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/relmap/models"
)

var (
	hobbit = models.Book{Title: "The Hobbit", Author: "J.R.R. Tolkien", PublicationYear: 1937, ISBN: "978-0547928227", Publisher: "Allen & Unwin"}
	dune   = models.Book{Title: "Dune", Author: "Frank Herbert", PublicationYear: 1965, ISBN: "978-0441013593", Publisher: "Chilton Books"}
	brave  = models.Book{Title: "Brave New World", Author: "Aldous Huxley", PublicationYear: 1932, ISBN: "978-0060850524", Publisher: "Chatto & Windus"}
)

var sampleVisitors = []*models.Visitor{
	{Name: "Anna", Surname: "Kowalska", Subscribed: true, FavoriteBooks: []models.Book{hobbit, dune}},
	{Name: "Mark", Surname: "Novak", Subscribed: false, FavoriteBooks: []models.Book{dune, brave}},
	{Name: "Olga", Surname: "Petrenko", Subscribed: true, FavoriteBooks: []models.Book{}},
}

func TestLoadVisitorsSampleFiles(t *testing.T) {
	for _, name := range []string{"books.json", "books.yaml"} {
		t.Run(name, func(t *testing.T) {
			got, err := LoadVisitors(filepath.Join("..", "configs", "data", name))
			require.NoError(t, err)
			if diff := cmp.Diff(sampleVisitors, got); diff != "" {
				t.Errorf("LoadVisitors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeVisitorsIgnoresIdentifiers(t *testing.T) {
	id := uuid.New().String()
	doc := `[{"id": "` + id + `", "name": "Ann", "surname": "Lee", "subscribed": true,
		"favoriteBooks": [{"id": "` + id + `", "name": "Dune"}]}]`

	got, err := DecodeVisitors(strings.NewReader(doc), FormatJSON)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uuid.Nil, got[0].ID)
	require.Len(t, got[0].FavoriteBooks, 1)
	assert.Equal(t, uuid.Nil, got[0].FavoriteBooks[0].ID)
	assert.Equal(t, "Dune", got[0].FavoriteBooks[0].Title)
}

func TestDecodeVisitorsErrors(t *testing.T) {
	tests := map[string]struct {
		doc    string
		format Format
	}{
		"malformed json":   {doc: `[{"name": }]`, format: FormatJSON},
		"malformed yaml":   {doc: "- name: [", format: FormatYAML},
		"null entry":       {doc: `[null]`, format: FormatJSON},
		"unknown format":   {doc: `[]`, format: Format("xml")},
		"wrong field type": {doc: `[{"subscribed": "yes"}]`, format: FormatJSON},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeVisitors(strings.NewReader(tc.doc), tc.format)
			assert.Error(t, err)
		})
	}
}

func TestLoadVisitorsMissingFile(t *testing.T) {
	_, err := LoadVisitors(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("visitors.YML"))
	assert.Equal(t, FormatYAML, FormatOf("a/b/visitors.yaml"))
	assert.Equal(t, FormatJSON, FormatOf("books.json"))
	assert.Equal(t, FormatJSON, FormatOf("books"))
}

func TestUniqueBooks(t *testing.T) {
	got := UniqueBooks(sampleVisitors)
	if diff := cmp.Diff([]*models.Book{&hobbit, &dune, &brave}, got); diff != "" {
		t.Errorf("UniqueBooks mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, UniqueBooks(nil))

	// Returned books are copies.
	got[0].ID = uuid.New()
	assert.Equal(t, uuid.Nil, sampleVisitors[0].FavoriteBooks[0].ID)
}
