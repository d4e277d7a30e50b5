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

// Package loader reads visitors and their favourite books from JSON or YAML
// documents.
package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tomoncle/relmap/models"
)

// Format is a supported document format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf picks the format from the file extension; anything that is not
// .yaml or .yml is read as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadVisitors reads the visitor document at path.
func LoadVisitors(path string) ([]*models.Visitor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open visitors file: %w", err)
	}
	defer f.Close()

	visitors, err := DecodeVisitors(f, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("load visitors from %s: %w", path, err)
	}
	return visitors, nil
}

// DecodeVisitors decodes a list of visitors. Identifiers are never taken
// from the document.
func DecodeVisitors(r io.Reader, format Format) ([]*models.Visitor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var visitors []*models.Visitor
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &visitors)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&visitors)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	for i, v := range visitors {
		if v == nil {
			return nil, fmt.Errorf("visitor %d is empty", i)
		}
	}
	return visitors, nil
}

// UniqueBooks collects the distinct favourite books of visitors, in first
// seen order. Books are compared on every field.
func UniqueBooks(visitors []*models.Visitor) []*models.Book {
	seen := make(map[models.Book]struct{})
	var books []*models.Book
	for _, v := range visitors {
		for _, b := range v.FavoriteBooks {
			if _, ok := seen[b]; ok {
				continue
			}
			seen[b] = struct{}{}
			book := b
			books = append(books, &book)
		}
	}
	return books
}
