package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/watanaberin/retro-bio/internal/server"
	"github.com/watanaberin/retro-bio/pkg/cache"
	"github.com/watanaberin/retro-bio/pkg/pipeline"
)

// shutdownTimeout bounds how long in-flight requests may run after an
// interrupt before the server gives up on them.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command running the HTTP rendering service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP rendering service",
		Long: `Serve profile cards over HTTP.

GET endpoints render the built-in default profile; POST endpoints accept a
JSON body with a profile and optional effect and export overrides:

  GET  /card.svg   GET  /card.png   GET  /card.gif
  POST /card.svg   POST /card.png   POST /card.gif
  GET  /healthz

With --redis, rendered artifacts are cached in Redis so replicas share one
cache; otherwise the local file cache is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.serverCache(cmd.Context(), redisAddr, noCache)
			if err != nil {
				return err
			}
			defer store.Close()

			runner := pipeline.NewRunner(store, c.Logger)
			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(runner, c.Logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				c.Logger.Info("listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			c.Logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for the shared artifact cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// serverCache picks the artifact cache backend: Redis when configured, the
// XDG file cache otherwise.
func (c *CLI) serverCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		store, err := cache.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return nil, err
		}
		c.Logger.Info("using redis cache", "addr", redisAddr)
		return store, nil
	}
	return newCache(false)
}
