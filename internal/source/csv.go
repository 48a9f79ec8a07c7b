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
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/oyvito/fin-table-prep/internal/table"
)

// CSVOptions configure a file-backed table source.
type CSVOptions struct {
	Path string
	// Name overrides the table name; default is the file name without
	// extension.
	Name string
	// Latin1 decodes the file as ISO 8859-1. Legacy exports from the
	// statistics bank are not UTF-8.
	Latin1 bool
	// Comma is the field separator; default ';', the separator those
	// exports use.
	Comma rune
}

// CSVFile is a Provider reading one delimited text file.
type CSVFile struct {
	opts CSVOptions
}

var _ Provider = (*CSVFile)(nil)

func NewCSVFile(opts CSVOptions) *CSVFile {
	if opts.Comma == 0 {
		opts.Comma = ';'
	}
	if opts.Name == "" {
		base := filepath.Base(opts.Path)
		opts.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return &CSVFile{opts: opts}
}

// Fetch reads the whole file. The first record is the header. Header and
// cell text go through the same cleaning as database-sourced values,
// including XML-entity decoding, so both paths produce comparable tables.
func (f *CSVFile) Fetch(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.opts.Path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if f.opts.Latin1 {
		reader = transform.NewReader(file, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(reader)
	cr.Comma = f.opts.Comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return table.New(f.opts.Name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", f.opts.Path, err)
	}
	for i := range header {
		header[i] = table.CleanText(header[i])
	}

	var records [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.opts.Path, err)
		}
		for i := range record {
			record[i] = table.CleanText(record[i])
		}
		records = append(records, record)
	}
	return buildTable(f.opts.Name, header, records), nil
}

func (f *CSVFile) Close() error { return nil }
