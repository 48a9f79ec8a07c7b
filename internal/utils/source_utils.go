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
package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// SourceSpec is one parsed --input or --reference argument.
type SourceSpec struct {
	// Kind is "csv" or a database dialect ("postgres", "mysql",
	// "sqlserver", "sqlite").
	Kind string
	// Location is the file path or DSN.
	Location string
	// Table is the table name for database sources.
	Table string
}

var dbKinds = map[string]bool{
	"postgres":  true,
	"mysql":     true,
	"sqlserver": true,
	"sqlite":    true,
}

// ParseSourceFlag parses a source argument. Database sources use the form
// dialect://dsn#table; anything else is treated as a CSV file path.
func ParseSourceFlag(arg string) (SourceSpec, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return SourceSpec{}, fmt.Errorf("empty source argument")
	}
	schemeEnd := strings.Index(arg, "://")
	if schemeEnd == -1 {
		return SourceSpec{Kind: "csv", Location: arg}, nil
	}
	kind := strings.ToLower(arg[:schemeEnd])
	if !dbKinds[kind] {
		return SourceSpec{}, fmt.Errorf("unsupported source scheme %q in %q", kind, arg)
	}
	rest := arg[schemeEnd+len("://"):]
	hash := strings.LastIndex(rest, "#")
	if hash == -1 || hash == len(rest)-1 {
		return SourceSpec{}, fmt.Errorf("database source %q is missing the #table suffix", arg)
	}
	spec := SourceSpec{
		Kind:     kind,
		Location: rest[:hash],
		Table:    rest[hash+1:],
	}
	// pgx parses URL-form DSNs, so postgres keeps its scheme. The other
	// drivers take scheme-less connection strings.
	if kind == "postgres" {
		spec.Location = kind + "://" + rest[:hash]
	}
	if spec.Location == "" {
		return SourceSpec{}, fmt.Errorf("database source %q has an empty DSN", arg)
	}
	return spec, nil
}

// ParseSourceFlags parses a comma-separated list of source arguments.
func ParseSourceFlags(args []string) ([]SourceSpec, error) {
	specs := make([]SourceSpec, 0, len(args))
	for _, arg := range args {
		spec, err := ParseSourceFlag(arg)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// GetDefaultOutputFilePath names the output file for a command.
func GetDefaultOutputFilePath(tableCode, commandName string) string {
	switch commandName {
	case "generate-script":
		return fmt.Sprintf("%s_prep.py", tableCode)
	default:
		return fmt.Sprintf("%s_mapping.yaml", tableCode)
	}
}

// ConfirmAction asks the user before overwriting an existing file. in is
// the answer source, normally os.Stdin.
func ConfirmAction(in io.Reader, actionDescription string) bool {
	reader := bufio.NewReader(in)
	fmt.Printf("\n-------------------------------------------------------------\n")
	fmt.Printf("%s\n", actionDescription)
	fmt.Print("Do you want to continue? (yes/no): ")
	text, _ := reader.ReadString('\n')
	action := strings.TrimSpace(strings.ToLower(text))
	return action == "yes" || action == "y"
}
