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
	"encoding/json"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/copysnip/cmd/copysnip/opts"
	"github.com/walteh/copysnip/pkg/channel"
	"github.com/walteh/copysnip/pkg/dispatch"
	"github.com/walteh/copysnip/pkg/menu"
	"github.com/walteh/copysnip/pkg/render"
)

// NewServeCmd creates a new serve command
func NewServeCmd(opts *opts.RootOpts) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the snippet daemon",
		Long: `Serve runs the HTTP daemon the browser extension talks to.
It will:
1. Accept a page channel over WebSocket at /channel
2. Mirror the snippet catalog into the context-menu registry
3. Dispatch menu clicks and keyboard shortcuts posted to /trigger`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if listen == "" {
				listen = opts.Config.Listen
			}
			return runServe(ctx, opts, listen)
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")

	return cmd
}

// server holds the page channel shared between the WebSocket handler and
// the trigger endpoints. Only the most recent page connection is active.
type server struct {
	opts *opts.RootOpts

	mu          sync.Mutex
	coordinator *dispatch.Coordinator
	page        *channel.WS
}

func runServe(ctx context.Context, rootOpts *opts.RootOpts, listen string) error {
	srv := &server{opts: rootOpts}

	syncer := menu.NewSyncer(rootOpts.Store, &menu.MemoryRegistry{})
	stopSync, err := syncer.Start(ctx)
	if err != nil {
		return errors.Errorf("starting menu syncer: %w", err)
	}
	defer stopSync()

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/channel", srv.handleChannel)
	router.Post("/trigger/menu", srv.handleMenuTrigger)
	router.Post("/trigger/shortcut/{slot}", srv.handleShortcutTrigger)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpServer := &http.Server{
		Addr:    listen,
		Handler: router,
	}

	rootOpts.UserLogger.Infof("listening on %s", listen)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errors.Errorf("serving http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Browser extensions connect with a chrome-extension:// origin,
		// so the usual same-origin check cannot apply.
		return true
	},
}

func (s *server) handleChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("upgrading page channel")
		return
	}

	page := channel.NewWS(ctx, conn, channel.WithTimeout(s.opts.Config.RequestTimeout()))
	coordinator := dispatch.New(s.opts.Store, page,
		render.WithHeadingTimeout(s.opts.Config.RequestTimeout()))

	s.mu.Lock()
	if s.page != nil {
		s.page.Close()
	}
	s.page = page
	s.coordinator = coordinator
	s.mu.Unlock()

	zerolog.Ctx(ctx).Info().Str("remote", r.RemoteAddr).Msg("page channel connected")

	<-page.Done()

	s.mu.Lock()
	if s.page == page {
		s.page = nil
		s.coordinator = nil
	}
	s.mu.Unlock()

	zerolog.Ctx(ctx).Info().Str("remote", r.RemoteAddr).Msg("page channel closed")
}

func (s *server) current() *dispatch.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coordinator
}

func (s *server) handleMenuTrigger(w http.ResponseWriter, r *http.Request) {
	coordinator := s.current()
	if coordinator == nil {
		http.Error(w, "no page connected", http.StatusServiceUnavailable)
		return
	}

	var ev dispatch.MenuClick
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid trigger payload", http.StatusBadRequest)
		return
	}

	flow := coordinator.HandleMenuClick(r.Context(), ev)
	writeFlow(w, flow)
}

func (s *server) handleShortcutTrigger(w http.ResponseWriter, r *http.Request) {
	coordinator := s.current()
	if coordinator == nil {
		http.Error(w, "no page connected", http.StatusServiceUnavailable)
		return
	}

	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, "invalid shortcut slot", http.StatusBadRequest)
		return
	}

	flow := coordinator.HandleShortcut(r.Context(), slot)
	writeFlow(w, flow)
}

func writeFlow(w http.ResponseWriter, flow dispatch.Flow) {
	status := http.StatusOK
	if flow.Failed() {
		status = http.StatusUnprocessableEntity
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"snippet_id": flow.SnippetID,
		"status":     flow.Status.String(),
		"reason":     string(flow.Reason),
	})
}
