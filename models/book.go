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
	"fmt"

	"github.com/google/uuid"
)

// Book is a row of the books table. The identifier is never read from a
// document; callers assign it before saving.
type Book struct {
	ID              uuid.UUID `db:"id,id" json:"-" yaml:"-"`
	Title           string    `db:"name" json:"name" yaml:"name"`
	Author          string    `json:"author" yaml:"author"`
	PublicationYear int       `db:"publication_year" json:"publishingYear" yaml:"publishingYear"`
	ISBN            string    `json:"isbn" yaml:"isbn"`
	Publisher       string    `json:"publisher" yaml:"publisher"`
}

func (Book) TableName() string { return "books" }

func (b Book) String() string {
	return fmt.Sprintf("Book(id=%s, title=%s, author=%s, publicationYear=%d, isbn=%s, publisher=%s)",
		b.ID, b.Title, b.Author, b.PublicationYear, b.ISBN, b.Publisher)
}
