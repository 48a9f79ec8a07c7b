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
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oyvito/fin-table-prep/internal/codelist"
	"github.com/oyvito/fin-table-prep/internal/config"
	"github.com/oyvito/fin-table-prep/internal/schema"
	"github.com/oyvito/fin-table-prep/internal/source"
	_ "github.com/oyvito/fin-table-prep/internal/source/mysql"
	_ "github.com/oyvito/fin-table-prep/internal/source/postgres"
	_ "github.com/oyvito/fin-table-prep/internal/source/sqlite"
	_ "github.com/oyvito/fin-table-prep/internal/source/sqlserver"
	"github.com/oyvito/fin-table-prep/internal/table"
	"github.com/oyvito/fin-table-prep/internal/utils"
)

var (
	cfgFile      string
	codelistDir  string
	schemaPath   string
	latin1       bool
	verbose      bool
	geminiAPIKey string
	geminiModel  string

	appCfg *config.Config
	logger *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "fin-table-prep",
	Short: "Infers how source extracts map onto standardized statistical tables",
	Long: `fin-table-prep compares raw source extracts against a reference output
table and infers the column mappings, value recodings, key columns and
aggregation steps needed to reproduce the output, as a reviewable
specification and a runnable preparation script.`,
	PersistentPreRunE: initFlagsAndConfig,
	SilenceUsage:      true,
}

// initFlagsAndConfig builds the effective configuration from the config
// file, environment and flags, and constructs the logger.
func initFlagsAndConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if cmd != nil {
		flags := cmd.Flags()
		if flags.Changed("codelists") {
			cfg.CodelistDir = codelistDir
		}
		if flags.Changed("schema") {
			cfg.SchemaPath = schemaPath
		}
		if flags.Changed("latin1") {
			cfg.Latin1 = latin1
		}
		if flags.Changed("gemini-model") {
			cfg.GeminiModel = geminiModel
		}
	}

	if geminiAPIKey == "" {
		geminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if geminiAPIKey != "" {
		cfg.GeminiAPIKey = geminiAPIKey
	}
	config.SetConfig(cfg)
	appCfg = cfg

	var zl *zap.Logger
	if verbose {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	logger = zl.Sugar()
	return nil
}

// loadReferenceData loads the codelist registry and the control schema. A
// missing schema file is tolerated (the schema strategies just yield
// nothing); a malformed codelist is fatal.
func loadReferenceData() (*codelist.Registry, *schema.Schema, error) {
	registry, err := codelist.LoadDir(appCfg.CodelistDir)
	if err != nil {
		return nil, nil, err
	}
	registry.OverlapThreshold = appCfg.OverlapThreshold
	logger.Infow("codelists loaded", "dir", appCfg.CodelistDir, "count", registry.Len())

	controlSchema, err := schema.Load(appCfg.SchemaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnw("control schema not found, name lookup disabled", "path", appCfg.SchemaPath)
			return registry, nil, nil
		}
		return nil, nil, err
	}
	logger.Infow("control schema loaded", "path", appCfg.SchemaPath, "variables", controlSchema.Len())
	return registry, controlSchema, nil
}

// fetchSource materializes one source argument as a table.
func fetchSource(ctx context.Context, spec utils.SourceSpec) (*table.Table, error) {
	if spec.Kind == "csv" {
		return source.NewCSVFile(source.CSVOptions{
			Path:   spec.Location,
			Latin1: appCfg.Latin1,
		}).Fetch(ctx)
	}
	db, err := source.Open(ctx, source.Config{
		Dialect: spec.Kind,
		DSN:     spec.Location,
		Table:   spec.Table,
	})
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.Fetch(ctx)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (defaults to ./fin-table-prep.yaml)")
	rootCmd.PersistentFlags().StringVar(&codelistDir, "codelists", "codelists", "Directory of codelist YAML/JSON files")
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "schema.yaml", "Control schema file of canonical variable names")
	rootCmd.PersistentFlags().BoolVar(&latin1, "latin1", false, "Decode CSV inputs as ISO 8859-1")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose (development) logging")
	rootCmd.PersistentFlags().StringVar(&geminiAPIKey, "gemini-api-key", "", "Gemini API key (can also be set via GEMINI_API_KEY environment variable)")
	rootCmd.PersistentFlags().StringVar(&geminiModel, "gemini-model", "", "Gemini model for naming suggestions")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(codelistsCmd)
}
