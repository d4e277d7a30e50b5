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

import "fmt"

// Music is a row of the music table.
type Music struct {
	ID    int    `db:"id,id" json:"id"`
	Title string `db:"name" json:"title"`
}

func (m Music) String() string {
	return fmt.Sprintf("Music(id=%d, title=%s)", m.ID, m.Title)
}
