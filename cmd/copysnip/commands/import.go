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
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/copysnip/cmd/copysnip/opts"
	"github.com/walteh/copysnip/pkg/log"
	"github.com/walteh/copysnip/pkg/merge"
	"github.com/walteh/copysnip/pkg/remote/github"
	"github.com/walteh/copysnip/pkg/storage"
)

// NewImportCmd creates a new import command
func NewImportCmd(opts *opts.RootOpts) *cobra.Command {
	var (
		repo string
		ref  string
		path string
	)

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import snippets and transform rules from export files",
		Long: `Import merges one or more export files into the catalog.
It will:
1. Parse each file (current or legacy export format)
2. Absorb rules equal to existing ones, minting fresh ids for the rest
3. Skip snippets already present, remapping rule references
4. Persist the merged catalog

File arguments may be glob patterns (e.g. 'exports/**/*.json').
With --repo, the export file is fetched from GitHub instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if repo == "" && len(args) == 0 {
				return errors.New("nothing to import: pass files or --repo")
			}

			sources, err := collectSources(ctx, args, repo, ref, path)
			if err != nil {
				return err
			}

			var totalSnippets, totalRules, totalSkipped int
			for _, src := range sources {
				added, rules, skipped, err := importOne(ctx, opts, src)
				if err != nil {
					if errors.Is(err, merge.ErrInvalidFile) {
						pterm.Error.Printfln("%s is not a recognized export file", src.name)
					}
					return errors.Errorf("importing %s: %w", src.name, err)
				}
				totalSnippets += added
				totalRules += rules
				totalSkipped += skipped
			}

			pterm.Success.Printfln("imported %d snippets and %d rules (%d duplicates skipped)",
				totalSnippets, totalRules, totalSkipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&repo, "repo", "", "GitHub repository to import from (owner/name)")
	cmd.Flags().StringVar(&ref, "ref", "main", "git ref to import from")
	cmd.Flags().StringVar(&path, "path", "copysnip.json", "path of the export file in the repository")

	return cmd
}

// importSource is one export payload with a display name for logging.
type importSource struct {
	name string
	data []byte
}

func collectSources(ctx context.Context, args []string, repo, ref, path string) ([]importSource, error) {
	var sources []importSource

	for _, arg := range args {
		matches, err := expandGlob(arg)
		if err != nil {
			return nil, err
		}
		for _, match := range matches {
			data, err := os.ReadFile(match)
			if err != nil {
				return nil, errors.Errorf("reading %s: %w", match, err)
			}
			sources = append(sources, importSource{name: match, data: data})
		}
	}

	if repo != "" {
		fetcher := github.New(ctx)
		data, err := fetcher.GetCollection(ctx, repo, ref, path)
		if err != nil {
			return nil, errors.Errorf("fetching %s@%s:%s: %w", repo, ref, path, err)
		}
		sources = append(sources, importSource{name: repo + ":" + path, data: data})
	}

	return sources, nil
}

// expandGlob resolves a doublestar pattern against the filesystem. A plain
// path with no meta characters is returned as-is so missing files still
// surface a read error instead of silently matching nothing.
func expandGlob(pattern string) ([]string, error) {
	slashed := filepath.ToSlash(pattern)
	if !strings.ContainsAny(slashed, "*?[{") {
		return []string{pattern}, nil
	}

	base, rest := doublestar.SplitPattern(slashed)
	matches, err := doublestar.Glob(os.DirFS(base), rest)
	if err != nil {
		return nil, errors.Errorf("expanding glob %q: %w", pattern, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(base, m))
	}
	return paths, nil
}

func importOne(ctx context.Context, rootOpts *opts.RootOpts, src importSource) (snippets, rules, skipped int, err error) {
	export, err := merge.ParseExport(src.data)
	if err != nil {
		return 0, 0, 0, err
	}

	logger := rootOpts.UserLogger
	logger.StartImportOperation(ctx, log.ImportOperation{Source: src.name})
	defer logger.EndImportOperation(ctx)

	// Merging against a catalog that only looks empty would overwrite the
	// real one on save, so read errors abort the import here.
	catalog, err := storage.LoadCatalogStrict(ctx, rootOpts.Store)
	if err != nil {
		return 0, 0, 0, errors.Errorf("loading catalog: %w", err)
	}

	ruleImport := merge.ImportRules(ctx, export.Rules, catalog.Rules)
	for _, outcome := range ruleImport.Outcomes {
		logger.LogEntryOperation(ctx, log.EntryOperation{
			Title:    outcome.Title,
			Kind:     "rule",
			IsNew:    outcome.Added,
			MappedTo: outcome.MappedTo,
		})
	}

	snippetImport := merge.ImportSnippets(ctx, export.Snippets, catalog.Snippets, ruleImport.IDMapping, ruleImport.Merged)
	for _, outcome := range snippetImport.Outcomes {
		logger.LogEntryOperation(ctx, log.EntryOperation{
			Title:     outcome.Title,
			Kind:      "snippet",
			IsNew:     outcome.Added,
			IsSkipped: !outcome.Added,
		})
	}

	catalog.Rules = ruleImport.Merged
	catalog.Snippets = append(catalog.Snippets, snippetImport.NewSnippets...)
	if err := storage.SaveCatalog(ctx, rootOpts.Store, catalog); err != nil {
		return 0, 0, 0, errors.Errorf("saving catalog: %w", err)
	}

	return len(snippetImport.NewSnippets), len(ruleImport.NewRules), snippetImport.Skipped, nil
}
