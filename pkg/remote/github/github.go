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

package github

import (
	"os"
	"strings"

	"context"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🎯 Fetcher downloads shared snippet collections (export JSON files) from
// GitHub repositories, so a catalog can be imported straight from a repo a
// team shares.
type Fetcher struct {
	client *github.Client
}

// 🏭 New creates a Fetcher. GITHUB_TOKEN is used when set; without it the
// client is unauthenticated, which is enough for public repositories.
func New(ctx context.Context) *Fetcher {
	client := github.NewClient(nil)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		client = client.WithAuthToken(token)
	} else {
		zerolog.Ctx(ctx).Debug().Msg("GITHUB_TOKEN not set, using unauthenticated client")
	}
	return &Fetcher{client: client}
}

// 🔍 parseRepo splits an "owner/name" repository reference.
func parseRepo(repo string) (owner, name string, err error) {
	parts := strings.Split(repo, "/")
	if len(parts) < 2 {
		return "", "", errors.Errorf("invalid repository format: %s", repo)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}

// 📥 GetCollection fetches the file at path in repo at ref and returns its
// raw bytes. Ref may be empty for the default branch.
func (f *Fetcher) GetCollection(ctx context.Context, repo, ref, path string) ([]byte, error) {
	logger := zerolog.Ctx(ctx)

	owner, name, err := parseRepo(repo)
	if err != nil {
		return nil, errors.Errorf("parsing repo: %w", err)
	}

	logger.Debug().
		Str("repo", repo).
		Str("ref", ref).
		Str("path", path).
		Msg("fetching shared collection")

	fileContent, _, _, err := f.client.Repositories.GetContents(ctx, owner, name, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		return nil, errors.Errorf("getting %s from %s: %w", path, repo, err)
	}
	if fileContent == nil {
		return nil, errors.Errorf("%s in %s is not a file", path, repo)
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, errors.Errorf("decoding %s content: %w", path, err)
	}
	return []byte(content), nil
}
