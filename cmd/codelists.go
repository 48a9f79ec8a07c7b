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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var codelistsCmd = &cobra.Command{
	Use:   "codelists",
	Short: "List the codelists in the configured directory",
	RunE:  runCodelists,
}

func runCodelists(cmd *cobra.Command, args []string) error {
	registry, _, err := loadReferenceData()
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		fmt.Fprintf(os.Stdout, "No codelists found in %s\n", appCfg.CodelistDir)
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tMAPPINGS\tLABELS\tDESCRIPTION")
	for _, name := range registry.Names() {
		cl, _ := registry.Get(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", cl.Name, cl.Version, len(cl.Mappings), len(cl.Labels), cl.Description)
	}
	return w.Flush()
}
