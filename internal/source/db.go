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

package source

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/oyvito/fin-table-prep/internal/table"
)

// DialectHandler encapsulates the dialect-specific parts of reading a
// table. Handlers register themselves from their package init, so a
// dialect is enabled by blank-importing its package.
type DialectHandler interface {
	CreatePool(cfg Config) (*sql.DB, error)
	QuoteIdentifier(name string) string
}

var (
	dialectHandlers = make(map[string]DialectHandler)
	mu              sync.RWMutex
)

func RegisterDialectHandler(dialect string, handler DialectHandler) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := dialectHandlers[dialect]; exists {
		log.Printf("WARN: Dialect handler for '%s' is being overwritten.", dialect)
	}
	dialectHandlers[dialect] = handler
}

func GetDialectHandler(dialect string) (DialectHandler, error) {
	mu.RLock()
	defer mu.RUnlock()
	handler, ok := dialectHandlers[dialect]
	if !ok {
		return nil, fmt.Errorf("unsupported database dialect: %s", dialect)
	}
	return handler, nil
}

// DB is a Provider reading one table through database/sql.
type DB struct {
	Pool    *sql.DB
	Handler DialectHandler
	Config  Config
}

var _ Provider = (*DB)(nil)

// Open looks the dialect handler up, creates the pool and verifies the
// connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	handler, err := GetDialectHandler(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	pool, err := handler.CreatePool(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool for dialect %s: %w", cfg.Dialect, err)
	}
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database (ping failed) for dialect %s: %w", cfg.Dialect, err)
	}
	return &DB{Pool: pool, Handler: handler, Config: cfg}, nil
}

// Fetch reads the configured table in full. Cell text is cleaned and column
// kinds are inferred from the values, not the declared SQL types, so a code
// column stored as VARCHAR of digits still compares against codelists the
// same way a CSV-sourced one does.
func (db *DB) Fetch(ctx context.Context) (*table.Table, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database connection pool is not initialized")
	}
	query := fmt.Sprintf("SELECT * FROM %s", db.Handler.QuoteIdentifier(db.Config.Table))
	rows, err := db.Pool.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", db.Config.Table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", db.Config.Table, err)
	}

	var records [][]string
	scan := make([]sql.NullString, len(names))
	ptrs := make([]interface{}, len(names))
	for i := range scan {
		ptrs[i] = &scan[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %s: %w", db.Config.Table, err)
		}
		record := make([]string, len(names))
		for i, ns := range scan {
			if ns.Valid {
				record[i] = table.CleanText(ns.String)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading table %s: %w", db.Config.Table, err)
	}

	cleaned := make([]string, len(names))
	for i, n := range names {
		cleaned[i] = table.CleanText(n)
	}
	return buildTable(db.Config.Table, cleaned, records), nil
}

func (db *DB) Close() error {
	if db.Pool != nil {
		return db.Pool.Close()
	}
	log.Println("WARN: Attempted to close a nil database connection pool.")
	return nil
}

// buildTable infers each column's kind from its string values and parses
// them into typed cells.
func buildTable(name string, headers []string, records [][]string) *table.Table {
	t := table.New(name)
	cols := make([]*table.Column, len(headers))
	for i, h := range headers {
		values := make([]string, len(records))
		for r, rec := range records {
			if i < len(rec) {
				values[r] = rec[i]
			}
		}
		cols[i] = t.AddColumn(h, table.InferKind(values))
	}
	for _, rec := range records {
		for i, col := range cols {
			s := ""
			if i < len(rec) {
				s = rec[i]
			}
			col.Values = append(col.Values, table.ParseValue(s, col.Kind))
		}
	}
	return t
}
