package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/vango-dev/uikit/internal/errors"
	"github.com/vango-dev/uikit/internal/registry"
	"github.com/vango-dev/uikit/internal/registryserver"
)

func registryServeCmd(a *app) *cobra.Command {
	var (
		addr     string
		name     string
		homepage string
		urlsFile string
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the merged index over HTTP",
		Long: `Serve the merged index over HTTP.

Routes:
  GET /registry.json      every merged item as one registry document
  GET /index.json         the merged index with its sources
  GET /r/{name}.json      one item; ?registry= picks the source
  GET /search?q=          ranked search hits
  GET /events             WebSocket stream of index rebuilds
  GET /healthz

With --watch the registry list and every local registry file in it are
polled, and the index is rebuilt when one of them changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, listPath, err := a.registrySources(urlsFile)
			if err != nil {
				return err
			}
			idx, err := registry.LoadMergedIndex(dir)
			if err != nil {
				if !watch || !errors.HasCode(err, "E115") {
					return err
				}
				// Nothing cached yet; the watcher builds the first index.
				idx = &registry.MergedIndex{Items: []*registry.Item{}}
			}
			if homepage == "" {
				homepage = "http://" + addr
			}

			rs := registryserver.New(idx,
				registryserver.WithName(name),
				registryserver.WithHomepage(homepage),
				registryserver.WithLogger(a.logger),
				registryserver.WithMiddlewares(middleware.Compress(5, "application/json")),
			)
			defer rs.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           rs,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()
			a.success("Serving %d item(s) on %s", len(idx.Items), color.CyanString("http://"+addr))

			if watch {
				rb := &rebuilder{app: a, server: rs, dir: dir, list: listPath}
				w := registryserver.NewWatcher(rb.watchPaths(), interval)
				w.OnChange(func(changed []string) {
					a.info("Changed: %s", changed[0])
					rb.rebuild(ctx)
					w.SetPaths(rb.watchPaths())
				})
				if len(idx.Items) == 0 {
					rb.rebuild(ctx)
					w.SetPaths(rb.watchPaths())
				}
				go func() { _ = w.Run(ctx) }()
				a.info("Watching %s", listPath)
			}

			select {
			case err := <-errCh:
				if !stderrors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("registry server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8787", "Listen address")
	cmd.Flags().StringVar(&name, "name", registryserver.DefaultName, "Name of the served registry")
	cmd.Flags().StringVar(&homepage, "homepage", "", "Homepage of the served registry (default: http://<addr>)")
	cmd.Flags().StringVar(&urlsFile, "urls", "", "Registry URL list (default: registries from uikit.json)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild the index when local registries change")
	cmd.Flags().DurationVar(&interval, "poll-interval", registryserver.DefaultPollInterval, "How often --watch checks for changes")
	return cmd
}

// rebuilder refetches the registry list into a running server.
type rebuilder struct {
	app    *app
	server *registryserver.Server
	dir    string
	list   string

	locals []string
}

// watchPaths is the list file plus every local registry it named at the
// last rebuild.
func (rb *rebuilder) watchPaths() []string {
	return append([]string{rb.list}, rb.locals...)
}

func (rb *rebuilder) rebuild(ctx context.Context) {
	a := rb.app
	urls, err := registry.ReadURLList(rb.list)
	if err != nil {
		a.errorMsg("%v", err)
		rb.server.NotifyError(err)
		return
	}

	rb.locals = rb.locals[:0]
	for _, u := range urls {
		if p, ok := registry.LocalPath(u); ok {
			rb.locals = append(rb.locals, filepath.Clean(p))
		}
	}

	idx := a.fetchIndex(ctx, urls)
	if err := a.persistTo(ctx, rb.dir, idx); err != nil {
		a.errorMsg("%v", err)
		rb.server.NotifyError(err)
		return
	}
	rb.server.SetIndex(idx)

	for _, src := range idx.Sources {
		if src.Error != "" {
			a.warn("%s: %s", src.URL, src.Error)
		}
	}
	a.success("Rebuilt index: %d item(s) from %d registr%s",
		len(idx.Items), len(idx.Sources), plural(len(idx.Sources), "y", "ies"))
}
