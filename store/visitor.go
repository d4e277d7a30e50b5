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
	"github.com/tomoncle/relmap/types"
)

// VisitorRepository persists models.Visitor. Favourite books are not stored
// with the visitor.
type VisitorRepository struct {
	*repository.BaseRepository[models.Visitor, uuid.UUID]
}

func NewVisitorRepository(db bun.IDB) (*VisitorRepository, error) {
	base, err := repository.NewRepository[models.Visitor, uuid.UUID](db)
	if err != nil {
		return nil, err
	}
	return &VisitorRepository{BaseRepository: base}, nil
}

// FindAllSubscribed returns the visitors with an active subscription.
func (r *VisitorRepository) FindAllSubscribed(ctx context.Context) ([]*models.Visitor, error) {
	return r.List(ctx, types.NewQueryFilter("? = ?", bun.Ident("is_subscribed"), true))
}
