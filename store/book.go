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

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/tomoncle/relmap/models"
	"github.com/tomoncle/relmap/repository"
)

const opFindAllByAuthor = "findAllByAuthor"

// BookRepository persists models.Book.
type BookRepository struct {
	*repository.BaseRepository[models.Book, uuid.UUID]
}

func NewBookRepository(db bun.IDB) (*BookRepository, error) {
	base, err := repository.NewRepository[models.Book, uuid.UUID](db)
	if err != nil {
		return nil, err
	}
	return &BookRepository{BaseRepository: base}, nil
}

// FindAllByAuthor returns the books written by author, oldest first.
func (r *BookRepository) FindAllByAuthor(ctx context.Context, author string) ([]*models.Book, error) {
	return r.Query(ctx, opFindAllByAuthor, "SELECT * FROM ? WHERE ? = ? ORDER BY ?",
		bun.Ident(r.TableName()), bun.Ident("author"), author, bun.Ident("publication_year"))
}
