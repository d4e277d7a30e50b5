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
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// TagName is the struct tag read by the resolver:
//
//	ID    int    `db:"id,id"`      column "id", identifier
//	Title string `db:"name"`       column "name"
//	Notes []Note `db:"-"`          not persisted
//	Email string                   column "email"
const TagName = "db"

const identifierOption = "id"

// TableNamer lets an entity override its derived table name.
type TableNamer interface {
	TableName() string
}

// Field is one persisted struct field.
type Field struct {
	Name       string
	Column     string
	Index      []int
	Type       reflect.Type
	Identifier bool
}

// Descriptor is the resolved, immutable mapping of an entity type to a table.
type Descriptor struct {
	Type       reflect.Type
	Table      string
	Identifier *Field
	// Fields in declaration order, embedded structs flattened in place.
	Fields []*Field

	byColumn map[string]*Field
}

var descriptorCache sync.Map // reflect.Type -> *Descriptor

// DescriptorOf resolves the descriptor of T.
func DescriptorOf[T any]() (*Descriptor, error) {
	return Describe(reflect.TypeOf((*T)(nil)).Elem())
}

// Describe resolves the descriptor of t, a struct type. Results are cached
// per type, so the struct is only scanned once.
func Describe(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, &ConfigurationError{Type: t, Reason: fmt.Sprintf("given %v, expected struct", t.Kind())}
	}
	if d, ok := descriptorCache.Load(t); ok {
		return d.(*Descriptor), nil
	}
	d, err := newDescriptor(t)
	if err != nil {
		return nil, err
	}
	cached, _ := descriptorCache.LoadOrStore(t, d)
	return cached.(*Descriptor), nil
}

func newDescriptor(t reflect.Type) (*Descriptor, error) {
	fields, err := resolveColumns(t, nil)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &ConfigurationError{Type: t, Reason: "no persisted fields"}
	}
	id, err := resolveIdentifier(t, fields)
	if err != nil {
		return nil, err
	}

	byColumn := make(map[string]*Field, len(fields))
	for _, f := range fields {
		if prev, ok := byColumn[f.Column]; ok {
			return nil, &ConfigurationError{
				Type:   t,
				Reason: fmt.Sprintf("duplicate column name %s (fields %s and %s)", f.Column, prev.Name, f.Name),
			}
		}
		byColumn[f.Column] = f
	}

	return &Descriptor{
		Type:       t,
		Table:      tableName(t),
		Identifier: id,
		Fields:     fields,
		byColumn:   byColumn,
	}, nil
}

func tableName(t reflect.Type) string {
	if namer, ok := reflect.New(t).Interface().(TableNamer); ok {
		if name := namer.TableName(); name != "" {
			return name
		}
	}
	return DeriveTableName(t.Name())
}

// resolveColumns lists the persisted fields of t in declaration order.
// Unexported and "-" tagged fields are skipped; untagged embedded structs are
// flattened.
func resolveColumns(t reflect.Type, index []int) ([]*Field, error) {
	var fields []*Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, hasTag := sf.Tag.Lookup(TagName)
		if tag == "-" {
			continue
		}
		// Unexported fields only count as embedded structs to flatten.
		if !sf.IsExported() && (!sf.Anonymous || hasTag) {
			continue
		}
		column, opts := parseTag(tag)
		path := append(append([]int{}, index...), i)

		if sf.Anonymous && !hasTag {
			switch sf.Type.Kind() {
			case reflect.Struct:
				embedded, err := resolveColumns(sf.Type, path)
				if err != nil {
					return nil, err
				}
				fields = append(fields, embedded...)
				continue
			case reflect.Pointer:
				return nil, &ConfigurationError{
					Type:   t,
					Reason: fmt.Sprintf("embedded pointer %s is not supported, embed the struct or tag it", sf.Name),
				}
			}
		}
		if !sf.IsExported() {
			continue
		}

		if !isValidColumn(column) {
			if column != "" {
				return nil, &ConfigurationError{Type: t, Reason: fmt.Sprintf("invalid column name %q on field %s", column, sf.Name)}
			}
			column = defaultColumnName(sf.Name)
		}
		fields = append(fields, &Field{
			Name:       sf.Name,
			Column:     column,
			Index:      path,
			Type:       sf.Type,
			Identifier: opts.Contains(identifierOption),
		})
	}
	return fields, nil
}

// resolveIdentifier returns the single field tagged as identifier.
func resolveIdentifier(t reflect.Type, fields []*Field) (*Field, error) {
	var id *Field
	for _, f := range fields {
		if !f.Identifier {
			continue
		}
		if id != nil {
			return nil, &ConfigurationError{
				Type:   t,
				Reason: fmt.Sprintf("more than one identifier field: %s and %s", id.Name, f.Name),
			}
		}
		id = f
	}
	if id == nil {
		return nil, &ConfigurationError{Type: t, Reason: fmt.Sprintf(`no identifier field, tag one with %s:",%s"`, TagName, identifierOption)}
	}
	return id, nil
}

// DeriveTableName converts a type name to snake case by inserting '_' before
// every upper-case letter but the first and lower-casing the result:
// MusicAlbum -> music_album, Id -> id.
func DeriveTableName(typeName string) string {
	var b strings.Builder
	b.Grow(len(typeName) + 4)
	for i, r := range typeName {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// defaultColumnName is the column used for a field without an explicit
// column: the Go field name lower-cased (Author -> author, ISBN -> isbn).
func defaultColumnName(fieldName string) string {
	return strings.ToLower(fieldName)
}

// ColumnMap returns field name -> column name for every persisted field.
func (d *Descriptor) ColumnMap() map[string]string {
	m := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		m[f.Name] = f.Column
	}
	return m
}

// Columns returns the column names in declaration order.
func (d *Descriptor) Columns() []string {
	cols := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		cols[i] = f.Column
	}
	return cols
}

// FieldByColumn returns the field mapped to column.
func (d *Descriptor) FieldByColumn(column string) (*Field, bool) {
	f, ok := d.byColumn[column]
	return f, ok
}

// nonIdentifierFields returns every field but the identifier, in order.
func (d *Descriptor) nonIdentifierFields() []*Field {
	out := make([]*Field, 0, len(d.Fields)-1)
	for _, f := range d.Fields {
		if f != d.Identifier {
			out = append(out, f)
		}
	}
	return out
}

type tagOptions string

func parseTag(tag string) (string, tagOptions) {
	name, opts, _ := strings.Cut(tag, ",")
	return strings.TrimSpace(name), tagOptions(opts)
}

// Contains reports whether a comma-separated list of options contains opt.
func (o tagOptions) Contains(opt string) bool {
	s := string(o)
	for s != "" {
		var name string
		name, s, _ = strings.Cut(s, ",")
		if strings.TrimSpace(name) == opt {
			return true
		}
	}
	return false
}

func isValidColumn(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c == '_', c == '$':
		case unicode.IsLetter(c), unicode.IsDigit(c):
		default:
			return false
		}
	}
	return true
}
