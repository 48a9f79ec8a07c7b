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

// Package source reads input and reference tables from databases and files.
package source

import (
	"context"

	"github.com/oyvito/fin-table-prep/internal/table"
)

// Provider reads one table from somewhere. Fetch may be called once; the
// returned table is fully materialized and owned by the caller.
type Provider interface {
	Fetch(ctx context.Context) (*table.Table, error)
	Close() error
}

// Config describes one database-backed table source.
type Config struct {
	// Dialect selects the registered handler: "postgres", "mysql",
	// "sqlserver" or "sqlite".
	Dialect string
	// DSN is the handler-specific connection string.
	DSN string
	// Table is the table to fetch.
	Table string
}
