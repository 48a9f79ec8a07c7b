/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/oyvito/fin-table-prep/internal/source"
)

// mysqlHandler implements source.DialectHandler for MySQL.
type mysqlHandler struct{}

var _ source.DialectHandler = (*mysqlHandler)(nil)

func (h mysqlHandler) CreatePool(cfg source.Config) (*sql.DB, error) {
	pool, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	return pool, nil
}

func (h mysqlHandler) QuoteIdentifier(name string) string {
	name = strings.Replace(name, "`", "``", -1)
	return fmt.Sprintf("`%s`", name)
}

func init() {
	source.RegisterDialectHandler("mysql", mysqlHandler{})
}
