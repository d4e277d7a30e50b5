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
	"fmt"
	"reflect"

	"github.com/tomoncle/relmap/database"
)

var (
	ErrConfiguration = errors.New("invalid entity configuration")
	ErrRepository    = errors.New("repository operation failed")
	ErrDataBinding   = errors.New("data binding failed")
)

// ConfigurationError reports entity metadata that cannot be mapped, such as a
// missing or duplicated identifier field.
type ConfigurationError struct {
	Type   reflect.Type
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("entity %v: %s", e.Type, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// RepositoryError wraps a statement the database rejected or failed to run.
type RepositoryError struct {
	Op    string
	Table string
	Kind  database.SQLError
	Err   error
}

func newRepositoryError(op, table string, err error) *RepositoryError {
	_, kind := database.IsSqlError(err)
	return &RepositoryError{Op: op, Table: table, Kind: kind, Err: err}
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s on %s failed (%s): %v", e.Op, e.Table, e.Kind, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func (e *RepositoryError) Is(target error) bool { return target == ErrRepository }

// DataBindingError reports a column that could not be read into, or written
// from, an entity field.
type DataBindingError struct {
	Op     string
	Field  string
	Column string
	Type   reflect.Type
	Err    error
}

func (e *DataBindingError) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: column %q -> field %s (%v): %v", e.Op, e.Column, e.Field, e.Type, e.Err)
	case e.Column != "":
		return fmt.Sprintf("%s: column %q: %v", e.Op, e.Column, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *DataBindingError) Unwrap() error { return e.Err }

func (e *DataBindingError) Is(target error) bool { return target == ErrDataBinding }
