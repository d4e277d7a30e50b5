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
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"

	"github.com/tomoncle/relmap/database"
	"github.com/tomoncle/relmap/types"
)

// Operation names carried by RepositoryError and DataBindingError.
const (
	OpFindByID   = "findById"
	OpFindAll    = "findAll"
	OpInsert     = "insert"
	OpUpdate     = "update"
	OpSave       = "save"
	OpUpsert     = "upsert"
	OpDelete     = "delete"
	OpDeleteByID = "deleteById"
	OpExistsByID = "existsById"
	OpCount      = "count"
	OpQuery      = "query"
	OpList       = "list"
	OpPage       = "page"
	OpMapRow     = "mapRow"
)

var (
	errNilEntity     = errors.New("entity is nil")
	errMissingColumn = errors.New("column missing from result set")
	errNoColumns     = errors.New("no non-identifier columns to update")
)

// BaseRepository implements CRUD for any entity type T whose identifier field
// has Go type ID. Statements are built once from the entity's Descriptor; all
// identifiers are passed to bun as bun.Ident and all values as '?' arguments.
//
// Concrete repositories embed *BaseRepository and add read queries through
// Query so every row goes through the same mapping.
type BaseRepository[T any, ID any] struct {
	db     bun.IDB
	desc   *Descriptor
	logger database.Logger

	table      bun.Ident
	idColumn   bun.Ident
	columnArgs []interface{} // bun.Ident per column, declaration order
	updatable  []*Field

	selectSQL string // SELECT ?, ?... FROM ?
	insertSQL string // INSERT INTO ? (?, ?...) VALUES
}

// NewRepository resolves the descriptor of T and prepares its statements. An
// invalid entity type fails here with a *ConfigurationError.
func NewRepository[T any, ID any](db bun.IDB) (*BaseRepository[T, ID], error) {
	desc, err := DescriptorOf[T]()
	if err != nil {
		return nil, err
	}
	idType := reflect.TypeOf((*ID)(nil)).Elem()
	if !idType.AssignableTo(desc.Identifier.Type) {
		return nil, &ConfigurationError{
			Type:   desc.Type,
			Reason: fmt.Sprintf("identifier field %s is %v, repository expects %v", desc.Identifier.Name, desc.Identifier.Type, idType),
		}
	}

	r := &BaseRepository[T, ID]{
		db:        db,
		desc:      desc,
		logger:    database.GetLogger(),
		table:     bun.Ident(desc.Table),
		idColumn:  bun.Ident(desc.Identifier.Column),
		updatable: desc.nonIdentifierFields(),
	}
	for _, f := range desc.Fields {
		r.columnArgs = append(r.columnArgs, bun.Ident(f.Column))
	}
	cols := placeholders(len(desc.Fields))
	r.selectSQL = "SELECT " + cols + " FROM ?"
	r.insertSQL = "INSERT INTO ? (" + cols + ") VALUES (" + cols + ")"
	return r, nil
}

func (r *BaseRepository[T, ID]) DB() bun.IDB { return r.db }

func (r *BaseRepository[T, ID]) Descriptor() *Descriptor { return r.desc }

func (r *BaseRepository[T, ID]) TableName() string { return r.desc.Table }

func (r *BaseRepository[T, ID]) SetLogger(logger database.Logger) { r.logger = logger }

// FindByID returns the row whose identifier equals id. A missing row is
// reported as ok == false with a nil error.
func (r *BaseRepository[T, ID]) FindByID(ctx context.Context, id ID) (entity *T, ok bool, err error) {
	args := append(r.selectArgs(), r.idColumn, id)
	entities, err := r.Query(ctx, OpFindByID, r.selectSQL+" WHERE ? = ?", args...)
	if err != nil || len(entities) == 0 {
		return nil, false, err
	}
	return entities[0], true, nil
}

// FindAll returns every row of the table.
func (r *BaseRepository[T, ID]) FindAll(ctx context.Context) ([]*T, error) {
	return r.Query(ctx, OpFindAll, r.selectSQL, r.selectArgs()...)
}

// Insert writes every mapped column, the identifier included.
func (r *BaseRepository[T, ID]) Insert(ctx context.Context, entity *T) (int64, error) {
	v, err := r.entityValue(OpInsert, entity)
	if err != nil {
		return 0, err
	}
	args := make([]interface{}, 0, 1+2*len(r.desc.Fields))
	args = append(args, r.table)
	args = append(args, r.columnArgs...)
	for _, f := range r.desc.Fields {
		args = append(args, v.FieldByIndex(f.Index).Interface())
	}
	return r.exec(ctx, OpInsert, r.insertSQL, args...)
}

// Update sets every non-identifier column of the row matching the entity's
// identifier. The identifier is bound last.
func (r *BaseRepository[T, ID]) Update(ctx context.Context, entity *T) (int64, error) {
	v, err := r.entityValue(OpUpdate, entity)
	if err != nil {
		return 0, err
	}
	if len(r.updatable) == 0 {
		return 0, &DataBindingError{Op: OpUpdate, Err: errNoColumns}
	}
	sets := make([]string, len(r.updatable))
	args := make([]interface{}, 0, 3+2*len(r.updatable))
	args = append(args, r.table)
	for i, f := range r.updatable {
		sets[i] = "? = ?"
		args = append(args, bun.Ident(f.Column), v.FieldByIndex(f.Index).Interface())
	}
	args = append(args, r.idColumn, r.identifierOf(v))
	query := "UPDATE ? SET " + strings.Join(sets, ", ") + " WHERE ? = ?"
	return r.exec(ctx, OpUpdate, query, args...)
}

// Save inserts the entity when its identifier is the zero value. Otherwise it
// counts the rows with that identifier and updates when one exists, inserting
// when none does.
//
// The count and the write are separate statements. Two callers saving the
// same new identifier concurrently can both decide to insert, and an update
// can race a delete. Use Upsert when that matters.
func (r *BaseRepository[T, ID]) Save(ctx context.Context, entity *T) (int64, error) {
	v, err := r.entityValue(OpSave, entity)
	if err != nil {
		return 0, err
	}
	idv := v.FieldByIndex(r.desc.Identifier.Index)
	if idv.IsZero() {
		r.logger.Debug("Save: identifier unset, inserting", "table", r.desc.Table)
		return r.Insert(ctx, entity)
	}

	n, err := r.countByID(ctx, OpSave, idv.Interface())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Debug("Save: row exists, updating", "table", r.desc.Table, "id", idv.Interface())
		return r.Update(ctx, entity)
	}
	r.logger.Debug("Save: row absent, inserting", "table", r.desc.Table, "id", idv.Interface())
	return r.Insert(ctx, entity)
}

// Upsert is the single-statement form of Save, using the dialect's native
// conflict clause. Dialects without one fall back to Save. On mysql an update
// reports 2 affected rows.
func (r *BaseRepository[T, ID]) Upsert(ctx context.Context, entity *T) (int64, error) {
	v, err := r.entityValue(OpUpsert, entity)
	if err != nil {
		return 0, err
	}
	features := r.db.Dialect().Features()
	if !features.Has(feature.InsertOnConflict) && !features.Has(feature.InsertOnDuplicateKey) {
		return r.Save(ctx, entity)
	}

	args := make([]interface{}, 0, 2+4*len(r.desc.Fields))
	args = append(args, r.table)
	args = append(args, r.columnArgs...)
	for _, f := range r.desc.Fields {
		args = append(args, v.FieldByIndex(f.Index).Interface())
	}

	sets := make([]string, len(r.updatable))
	var query string
	if features.Has(feature.InsertOnConflict) {
		query = r.insertSQL + " ON CONFLICT (?)"
		args = append(args, r.idColumn)
		for i, f := range r.updatable {
			sets[i] = "? = EXCLUDED.?"
			args = append(args, bun.Ident(f.Column), bun.Ident(f.Column))
		}
		if len(sets) == 0 {
			query += " DO NOTHING"
		} else {
			query += " DO UPDATE SET " + strings.Join(sets, ", ")
		}
	} else {
		for i, f := range r.updatable {
			sets[i] = "? = VALUES(?)"
			args = append(args, bun.Ident(f.Column), bun.Ident(f.Column))
		}
		if len(sets) == 0 {
			sets = []string{"? = ?"}
			args = append(args, r.idColumn, r.idColumn)
		}
		query = r.insertSQL + " ON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	}
	return r.exec(ctx, OpUpsert, query, args...)
}

// Delete removes the row matching the entity's identifier.
func (r *BaseRepository[T, ID]) Delete(ctx context.Context, entity *T) (int64, error) {
	v, err := r.entityValue(OpDelete, entity)
	if err != nil {
		return 0, err
	}
	return r.deleteByID(ctx, OpDelete, r.identifierOf(v))
}

// DeleteByID removes the row with identifier id. Deleting an absent row
// returns 0 and no error.
func (r *BaseRepository[T, ID]) DeleteByID(ctx context.Context, id ID) (int64, error) {
	return r.deleteByID(ctx, OpDeleteByID, id)
}

// ExistsByID reports whether a row with identifier id exists.
func (r *BaseRepository[T, ID]) ExistsByID(ctx context.Context, id ID) (bool, error) {
	n, err := r.countByID(ctx, OpExistsByID, id)
	return n > 0, err
}

// Count returns the number of rows in the table.
func (r *BaseRepository[T, ID]) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, OpCount, "SELECT COUNT(*) FROM ?", r.table)
}

// List returns the rows matching filter; a nil filter lists everything.
func (r *BaseRepository[T, ID]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	query, args := r.selectSQL, r.selectArgs()
	if filter != nil && filter.Schema != "" {
		query += " WHERE " + filter.Schema
		args = append(args, filter.Args...)
	}
	return r.Query(ctx, OpList, query, args...)
}

// Page returns one page of rows matching the request's filter, in the
// request's order. Orders must name mapped columns.
func (r *BaseRepository[T, ID]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error) {
	if req == nil {
		req = types.NewDefaultPageRequest(1, 10)
	}
	where, whereArgs := "", []interface{}(nil)
	if f := req.GetFilter(); f != nil && f.Schema != "" {
		where, whereArgs = " WHERE "+f.Schema, f.Args
	}

	orderBy, orderArgs, err := r.orderClause(req.GetOrders())
	if err != nil {
		return nil, err
	}

	pagination := types.NewDefaultPagination[T](req.GetPage(), req.GetPageSize())
	total, err := r.count(ctx, OpPage, "SELECT COUNT(*) FROM ?"+where, append([]interface{}{r.table}, whereArgs...)...)
	if err != nil || total == 0 {
		return pagination, err
	}

	args := append(r.selectArgs(), whereArgs...)
	args = append(args, orderArgs...)
	args = append(args, req.GetPageSize(), req.GetOffset())
	items, err := r.Query(ctx, OpPage, r.selectSQL+where+orderBy+" LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	pagination.Total = int(total)
	pagination.Items = items
	return pagination, nil
}

// Query runs a read statement and maps every row through MapRow's column
// binding. op names the operation in returned errors. The rows are always
// closed before Query returns.
func (r *BaseRepository[T, ID]) Query(ctx context.Context, op, query string, args ...interface{}) ([]*T, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, newRepositoryError(op, r.desc.Table, err)
	}
	defer rows.Close()

	plan, err := r.scanPlan(op, rows)
	if err != nil {
		return nil, err
	}
	entities := make([]*T, 0)
	for rows.Next() {
		entity, err := r.scan(op, rows, plan)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, newRepositoryError(op, r.desc.Table, err)
	}
	return entities, nil
}

// MapRow builds a new T from the current row of rows. Every mapped column must
// be present in the result set; extra columns are ignored.
func (r *BaseRepository[T, ID]) MapRow(rows *sql.Rows) (*T, error) {
	plan, err := r.scanPlan(OpMapRow, rows)
	if err != nil {
		return nil, err
	}
	return r.scan(OpMapRow, rows, plan)
}

// scanPlan matches result columns to fields; nil entries are discarded.
func (r *BaseRepository[T, ID]) scanPlan(op string, rows *sql.Rows) ([]*Field, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, newRepositoryError(op, r.desc.Table, err)
	}
	plan := make([]*Field, len(cols))
	found := make(map[*Field]bool, len(r.desc.Fields))
	for i, c := range cols {
		f, ok := r.desc.FieldByColumn(c)
		if !ok {
			f, ok = r.desc.FieldByColumn(strings.ToLower(c))
		}
		if ok && !found[f] {
			plan[i] = f
			found[f] = true
		}
	}
	for _, f := range r.desc.Fields {
		if !found[f] {
			return nil, &DataBindingError{Op: op, Field: f.Name, Column: f.Column, Type: f.Type, Err: errMissingColumn}
		}
	}
	return plan, nil
}

func (r *BaseRepository[T, ID]) scan(op string, rows *sql.Rows, plan []*Field) (*T, error) {
	entity := new(T)
	v := reflect.ValueOf(entity).Elem()
	dest := make([]interface{}, len(plan))
	for i, f := range plan {
		if f == nil {
			dest[i] = new(interface{})
			continue
		}
		dest[i] = v.FieldByIndex(f.Index).Addr().Interface()
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, r.bindingError(op, plan, err)
	}
	return entity, nil
}

// bindingError names the field when database/sql reports the failing column.
func (r *BaseRepository[T, ID]) bindingError(op string, plan []*Field, err error) error {
	for _, f := range plan {
		if f != nil && strings.Contains(err.Error(), fmt.Sprintf("name %q", f.Column)) {
			return &DataBindingError{Op: op, Field: f.Name, Column: f.Column, Type: f.Type, Err: err}
		}
	}
	return &DataBindingError{Op: op, Err: err}
}

func (r *BaseRepository[T, ID]) deleteByID(ctx context.Context, op string, id interface{}) (int64, error) {
	return r.exec(ctx, op, "DELETE FROM ? WHERE ? = ?", r.table, r.idColumn, id)
}

func (r *BaseRepository[T, ID]) countByID(ctx context.Context, op string, id interface{}) (int64, error) {
	return r.count(ctx, op, "SELECT COUNT(*) FROM ? WHERE ? = ?", r.table, r.idColumn, id)
}

func (r *BaseRepository[T, ID]) count(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, newRepositoryError(op, r.desc.Table, err)
	}
	return n, nil
}

func (r *BaseRepository[T, ID]) exec(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, newRepositoryError(op, r.desc.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, newRepositoryError(op, r.desc.Table, err)
	}
	return n, nil
}

func (r *BaseRepository[T, ID]) entityValue(op string, entity *T) (reflect.Value, error) {
	if entity == nil {
		return reflect.Value{}, &DataBindingError{Op: op, Err: errNilEntity}
	}
	return reflect.ValueOf(entity).Elem(), nil
}

func (r *BaseRepository[T, ID]) identifierOf(v reflect.Value) interface{} {
	return v.FieldByIndex(r.desc.Identifier.Index).Interface()
}

// selectArgs returns a fresh argument slice for selectSQL.
func (r *BaseRepository[T, ID]) selectArgs() []interface{} {
	args := make([]interface{}, 0, len(r.columnArgs)+4)
	args = append(args, r.columnArgs...)
	return append(args, r.table)
}

// orderClause turns "column [ASC|DESC]" entries into an ORDER BY clause.
func (r *BaseRepository[T, ID]) orderClause(orders []string) (string, []interface{}, error) {
	if len(orders) == 0 {
		return " ORDER BY ?", []interface{}{r.idColumn}, nil
	}
	parts := make([]string, 0, len(orders))
	args := make([]interface{}, 0, len(orders))
	for _, o := range orders {
		fields := strings.Fields(o)
		if len(fields) == 0 || len(fields) > 2 {
			return "", nil, &DataBindingError{Op: OpPage, Err: fmt.Errorf("invalid order %q", o)}
		}
		if _, ok := r.desc.FieldByColumn(fields[0]); !ok {
			return "", nil, &DataBindingError{Op: OpPage, Column: fields[0], Err: fmt.Errorf("order by unmapped column")}
		}
		dir := "ASC"
		if len(fields) == 2 {
			dir = strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return "", nil, &DataBindingError{Op: OpPage, Column: fields[0], Err: fmt.Errorf("invalid order direction %q", fields[1])}
			}
		}
		parts = append(parts, "? "+dir)
		args = append(args, bun.Ident(fields[0]))
	}
	return " ORDER BY " + strings.Join(parts, ", "), args, nil
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
