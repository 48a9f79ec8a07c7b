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
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// CodelistDir is the directory of codelist YAML/JSON files.
	CodelistDir string `mapstructure:"codelist_dir"`
	// SchemaPath is the control schema file of canonical variable names.
	SchemaPath string `mapstructure:"schema_path"`
	// SimilarityThreshold for the fallback name-matching strategy.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	// OverlapThreshold for codelist value matching.
	OverlapThreshold float64 `mapstructure:"overlap_threshold"`
	// Latin1 decodes CSV inputs as ISO 8859-1.
	Latin1 bool `mapstructure:"latin1"`

	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
}

var globalConfig *Config

// GetConfig returns a default configuration. Flags and environment
// variables override it in root.go.
func GetConfig() *Config {
	return &Config{
		CodelistDir:         "codelists",
		SchemaPath:          "schema.yaml",
		SimilarityThreshold: 0.6,
		OverlapThreshold:    0.5,
	}
}

// Load builds the configuration from defaults, an optional config file and
// FINPREP_* environment variables, in increasing precedence. configFile may
// be empty; a missing default file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	defaults := GetConfig()
	v.SetDefault("codelist_dir", defaults.CodelistDir)
	v.SetDefault("schema_path", defaults.SchemaPath)
	v.SetDefault("similarity_threshold", defaults.SimilarityThreshold)
	v.SetDefault("overlap_threshold", defaults.OverlapThreshold)
	v.SetDefault("latin1", defaults.Latin1)
	v.SetDefault("gemini_model", defaults.GeminiModel)

	v.SetEnvPrefix("FINPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("fin-table-prep")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// SetConfig sets the global configuration.
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// Get returns the global configuration, defaulting when unset.
func Get() *Config {
	if globalConfig == nil {
		return GetConfig()
	}
	return globalConfig
}
