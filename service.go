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
	"errors"
	"fmt"

	"github.com/tomoncle/relmap/repository"
	"github.com/tomoncle/relmap/types"
)

var ErrNotFound = errors.New("entity not found")

// Service is the caller facing view of a repository: lookups report a
// missing row as ErrNotFound and writes accept several entities at once.
type Service[T any, ID any] interface {
	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id ID) (*T, error)

	// All returns all entities.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match the provided filter.
	List(ctx context.Context, filter *types.QueryFilter) ([]*T, error)

	// Page returns a paginated list of entities.
	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts or updates each entity and returns the affected rows.
	Save(ctx context.Context, models ...*T) (int64, error)

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id ID) error
}

type baseServiceImpl[T any, ID any] struct {
	repo repository.Repository[T, ID]
}

// NewService returns a Service backed by repo.
func NewService[T any, ID any](repo repository.Repository[T, ID]) Service[T, ID] {
	return &baseServiceImpl[T, ID]{repo: repo}
}

func (s *baseServiceImpl[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	entity, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s %v: %w", s.repo.TableName(), id, ErrNotFound)
	}
	return entity, nil
}

func (s *baseServiceImpl[T, ID]) All(ctx context.Context) ([]*T, error) {
	return s.repo.FindAll(ctx)
}

func (s *baseServiceImpl[T, ID]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	return s.repo.List(ctx, filter)
}

func (s *baseServiceImpl[T, ID]) Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error) {
	return s.repo.Page(ctx, page)
}

// Save stops at the first failing entity; earlier ones stay saved.
func (s *baseServiceImpl[T, ID]) Save(ctx context.Context, models ...*T) (int64, error) {
	var total int64
	for _, m := range models {
		n, err := s.repo.Save(ctx, m)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (s *baseServiceImpl[T, ID]) Delete(ctx context.Context, id ID) error {
	n, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", s.repo.TableName(), id, ErrNotFound)
	}
	return nil
}
