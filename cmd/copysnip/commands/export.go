// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/cmd/copysnip/opts"
	"github.com/walteh/copysnip/pkg/merge"
	"github.com/walteh/copysnip/pkg/storage"
)

// NewExportCmd creates a new export command
func NewExportCmd(opts *opts.RootOpts) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the snippet and rule catalog to a file",
		Long: `Export writes the full catalog as a JSON export file that
import (and the extension's own import dialog) accepts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// A read failure must not masquerade as an empty catalog in
			// the exported file.
			catalog, err := storage.LoadCatalogStrict(ctx, opts.Store)
			if err != nil {
				return errors.Errorf("loading catalog: %w", err)
			}

			data, err := merge.MarshalExport(merge.ExportData{
				Snippets: catalog.Snippets,
				Rules:    catalog.Rules,
			})
			if err != nil {
				return errors.Errorf("marshaling export: %w", err)
			}

			if output == "-" {
				if _, err := cmd.OutOrStdout().Write(append(data, '\n')); err != nil {
					return errors.Errorf("writing export: %w", err)
				}
				return nil
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errors.Errorf("writing %s: %w", output, err)
			}

			pterm.Success.Printfln("exported %d snippets and %d rules to %s",
				len(catalog.Snippets), len(catalog.Rules), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "copysnip.json", "output file path ('-' for stdout)")

	return cmd
}
