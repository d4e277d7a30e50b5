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

	"github.com/tomoncle/relmap/types"
)

// CrudRepository defines the CRUD operations for entity T identified by ID.
type CrudRepository[T any, ID any] interface {
	FindByID(ctx context.Context, id ID) (*T, bool, error)

	FindAll(ctx context.Context) ([]*T, error)

	Insert(ctx context.Context, entity *T) (int64, error)

	Update(ctx context.Context, entity *T) (int64, error)

	Save(ctx context.Context, entity *T) (int64, error)

	Upsert(ctx context.Context, entity *T) (int64, error)

	Delete(ctx context.Context, entity *T) (int64, error)

	DeleteByID(ctx context.Context, id ID) (int64, error)

	ExistsByID(ctx context.Context, id ID) (bool, error)

	Count(ctx context.Context) (int64, error)
}

// QueryRepository defines read queries whose rows are mapped like FindAll.
type QueryRepository[T any] interface {
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)
	Query(ctx context.Context, op, query string, args ...interface{}) ([]*T, error)
	MapRow(rows *sql.Rows) (*T, error)
}

// PageQueryRepository defines pagination functionality for listing entities.
type PageQueryRepository[T any] interface {
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)
}

// Repository combines CRUD, custom queries and pagination.
type Repository[T any, ID any] interface {
	CrudRepository[T, ID]
	QueryRepository[T]
	PageQueryRepository[T]
	TableName() string
	Descriptor() *Descriptor
}
