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

package database

import (
	"database/sql"
	"regexp"

	"github.com/mattn/go-sqlite3"
)

// SQLiteDriverName is the database/sql driver registered by this package. It
// is the mattn sqlite3 driver with two extra SQL functions on every
// connection:
//
//	regexp(pattern, value)   backs the REGEXP operator, case-sensitive
//	iregexp(pattern, value)  case-insensitive match, like postgres ~*
const SQLiteDriverName = "sqlite3_relmap"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("regexp", func(pattern, value string) (bool, error) {
				return matchRegexp(pattern, value)
			}, true); err != nil {
				return err
			}
			return conn.RegisterFunc("iregexp", func(pattern, value string) (bool, error) {
				return matchRegexp("(?i)"+pattern, value)
			}, true)
		},
	})
}

func matchRegexp(pattern, value string) (bool, error) {
	return regexp.MatchString(pattern, value)
}
