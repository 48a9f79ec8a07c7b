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
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oyvito/fin-table-prep/internal/inference"
	"github.com/oyvito/fin-table-prep/internal/utils"
)

var validateAsSpecification bool

var validateCmd = &cobra.Command{
	Use:   "validate <source>",
	Short: "Check a table's columns against the control schema",
	Long: `Reads a table (a CSV path or dialect://dsn#table) and checks it against
the control schema: column names that should be standardized to a canonical
variable name, and value kinds that disagree with the declared data types.

With --specification the argument is instead treated as a previously
generated mapping specification, and its structure is checked: every mapping
has both endpoints, confidences are in range, no input or target column is
claimed twice, and referenced codelists exist in the configured directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateAsSpecification {
		return validateSpecification(args[0])
	}
	return validateTable(cmd.Context(), args[0])
}

func validateTable(ctx context.Context, arg string) error {
	_, controlSchema, err := loadReferenceData()
	if err != nil {
		return err
	}
	if controlSchema == nil {
		return fmt.Errorf("table validation needs a control schema (see --schema)")
	}

	srcSpec, err := utils.ParseSourceFlag(arg)
	if err != nil {
		return err
	}
	tbl, err := fetchSource(ctx, srcSpec)
	if err != nil {
		return fmt.Errorf("failed to read table source %q: %w", arg, err)
	}
	logger.Infow("table loaded", "table", tbl.Name, "rows", tbl.Rows(), "columns", len(tbl.Columns()))

	suggestions := controlSchema.SuggestStandardization(tbl)
	if len(suggestions) == 0 {
		fmt.Fprintln(os.Stdout, "All column names follow the control schema.")
	} else {
		fmt.Fprintln(os.Stdout, "Suggested column standardizations:")
		for _, sug := range suggestions {
			fmt.Fprintf(os.Stdout, "  %q -> %q\n", sug.Column, sug.Canonical)
		}
	}

	issues := controlSchema.CheckKinds(tbl)
	for _, issue := range issues {
		logger.Warnw("kind mismatch",
			"column", issue.Column,
			"expected", issue.Expected,
			"actual", issue.Actual.String())
		fmt.Fprintf(os.Stdout, "  %q: expected %s values, found %s\n", issue.Column, issue.Expected, issue.Actual)
	}

	if len(suggestions) == 0 && len(issues) == 0 {
		fmt.Fprintf(os.Stdout, "OK: %s\n", tbl.Name)
	}
	return nil
}

func validateSpecification(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open specification: %w", err)
	}
	defer file.Close()

	doc, err := inference.Decode(file)
	if err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	registry, _, err := loadReferenceData()
	if err != nil {
		return err
	}
	for _, in := range doc.Inputs {
		for _, m := range in.Mappings {
			if m.Codelist == "" {
				continue
			}
			cl, ok := registry.Get(m.Codelist)
			if !ok {
				return fmt.Errorf("specification %q references unknown codelist %q", doc.ID, m.Codelist)
			}
			if m.Version != "" && cl.Version != m.Version {
				logger.Warnw("codelist version drift",
					"codelist", m.Codelist,
					"specification", m.Version,
					"registry", cl.Version)
			}
		}
	}

	logger.Infow("specification is valid",
		"id", doc.ID,
		"table_code", doc.TableCode,
		"inputs", len(doc.Inputs))
	fmt.Fprintf(os.Stdout, "OK: %s (%s)\n", path, doc.ID)
	return nil
}

func init() {
	validateCmd.Flags().BoolVar(&validateAsSpecification, "specification", false,
		"Treat the argument as a generated mapping specification instead of a table")
}
