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

package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/relmap/repository"
)

func TestModelDescriptors(t *testing.T) {
	tests := map[string]struct {
		describe func() (*repository.Descriptor, error)
		table    string
		columns  []string
	}{
		"music": {
			describe: repository.DescriptorOf[Music],
			table:    "music",
			columns:  []string{"id", "name"},
		},
		"book": {
			describe: repository.DescriptorOf[Book],
			table:    "books",
			columns:  []string{"id", "name", "author", "publication_year", "isbn", "publisher"},
		},
		"visitor": {
			describe: repository.DescriptorOf[Visitor],
			table:    "visitors",
			columns:  []string{"id", "name", "surname", "is_subscribed"},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := tc.describe()
			require.NoError(t, err)
			assert.Equal(t, tc.table, d.Table)
			assert.Equal(t, "id", d.Identifier.Column)
			if diff := cmp.Diff(tc.columns, d.Columns()); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVisitorFavoriteBooksNotPersisted(t *testing.T) {
	d, err := repository.DescriptorOf[Visitor]()
	require.NoError(t, err)
	assert.NotContains(t, d.ColumnMap(), "FavoriteBooks")
}

func TestMusicString(t *testing.T) {
	assert.Equal(t, "Music(id=777, title=Changed)", Music{ID: 777, Title: "Changed"}.String())
}
