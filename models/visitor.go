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

// Visitor is a row of the visitors table. FavoriteBooks only travels through
// documents and is never persisted with the visitor.
type Visitor struct {
	ID            uuid.UUID `db:"id,id" json:"-" yaml:"-"`
	Name          string    `json:"name" yaml:"name"`
	Surname       string    `json:"surname" yaml:"surname"`
	Subscribed    bool      `db:"is_subscribed" json:"subscribed" yaml:"subscribed"`
	FavoriteBooks []Book    `db:"-" json:"favoriteBooks" yaml:"favoriteBooks"`
}

func (Visitor) TableName() string { return "visitors" }

func (v Visitor) String() string {
	return fmt.Sprintf("Visitor(id=%s, name=%s, surname=%s, subscribed=%t, favoriteBooks=%v)",
		v.ID, v.Name, v.Surname, v.Subscribed, v.FavoriteBooks)
}
