package cli

import (
	"context"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autoroute/pkg/cache"
	"github.com/matzehuels/autoroute/pkg/server"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr          string
	redisAddr     string
	redisPassword string
	redisDB       int
	timeout       time.Duration
	parallel      int
	maxCells      int
	maxParallel   int
	noCache       bool
}

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:        server.DefaultAddr,
		timeout:     server.DefaultRequestTimeout,
		maxCells:    server.DefaultMaxCells,
		maxParallel: runtime.NumCPU(),
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the routing HTTP API",
		Long: `Run the routing HTTP API.

Results are cached in Redis when --redis is set, in the local cache directory
otherwise. --no-cache disables caching.`,
		Example: `  autoroute serve --addr :8080
  autoroute serve --redis localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "Redis address for the shared cache")
	cmd.Flags().StringVar(&opts.redisPassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&opts.redisDB, "redis-db", 0, "Redis database number")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request routing timeout")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 0, "goroutines evaluating candidate endpoints per request")
	cmd.Flags().IntVar(&opts.maxCells, "max-cells", opts.maxCells, "reject boards with more grid cells")
	cmd.Flags().IntVar(&opts.maxParallel, "max-parallel", opts.maxParallel, "reject boards asking for more candidate workers")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	backend, err := c.serverCache(ctx, opts)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:           opts.addr,
		Logger:         c.Logger,
		Cache:          backend,
		RequestTimeout: opts.timeout,
		Parallelism:    opts.parallel,
		MaxCells:       opts.maxCells,
		MaxParallelism: opts.maxParallel,
	})

	printInfo("Serving on %s", StyleHighlight.Render(opts.addr))
	return srv.Start(ctx)
}

// serverCache picks the cache backend for the server.
func (c *CLI) serverCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisAddr == "" {
		return newCache(false)
	}

	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     opts.redisAddr,
		Password: opts.redisPassword,
		DB:       opts.redisDB,
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Info("using redis cache", "addr", opts.redisAddr, "db", opts.redisDB)
	return rc, nil
}
