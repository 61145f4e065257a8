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
	"fmt"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/cmd/copysnip/opts"
	"github.com/walteh/copysnip/pkg/render"
	"github.com/walteh/copysnip/pkg/snippet"
	"github.com/walteh/copysnip/pkg/storage"
)

// NewRenderCmd creates a new render command
func NewRenderCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		pageURL   string
		title     string
		selection string
	)

	cmd := &cobra.Command{
		Use:   "render <snippet-id>",
		Short: "Render one snippet against a page context",
		Long: `Render runs the full template pipeline for a single snippet:
query stripping, transform rules, and placeholder substitution. Without a
live page there is no section heading, so ${section} falls back to the raw
fragment identifier.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog := storage.LoadCatalog(ctx, opts.Store)

			target, ok := findSnippet(catalog.Snippets, args[0])
			if !ok {
				return errors.Errorf("snippet %q not found in catalog", args[0])
			}

			renderer := render.New(render.NopHeadingFetcher{})
			rendered := renderer.Render(ctx, target, snippet.PageContext{
				URL:           pageURL,
				Title:         title,
				SelectionText: selection,
			}, catalog.Rules)

			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pageURL, "url", "u", "", "page url")
	cmd.Flags().StringVarP(&title, "title", "t", "", "page title")
	cmd.Flags().StringVarP(&selection, "selection", "s", "", "selected text")

	return cmd
}

func findSnippet(snippets []snippet.Snippet, id string) (snippet.Snippet, bool) {
	for _, s := range snippets {
		if s.ID == id || s.Title == id {
			return s, true
		}
	}
	return snippet.Snippet{}, false
}
