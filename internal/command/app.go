package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	fetchcache "github.com/krisalay/fetchcache"
	"github.com/krisalay/fetchcache/engine"
	"github.com/krisalay/fetchcache/eviction"
	"github.com/krisalay/fetchcache/expiration"
	"github.com/krisalay/fetchcache/fetcher"
	"github.com/krisalay/fetchcache/internal/config"
	"github.com/krisalay/fetchcache/metrics"
	"github.com/krisalay/fetchcache/site"
	"github.com/krisalay/fetchcache/snapshot"
	"github.com/krisalay/fetchcache/types"
	"github.com/krisalay/fetchcache/writepolicy"
)

// runtime is what Before builds for the actions and After tears down.
type runtime struct {
	cfg     config.Type
	cache   *fetchcache.FetchCache
	loader  *site.Loader
	closers []func()
}

func (rt *runtime) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// InitApp loads the config named by --config (or found in the usual
// places) and builds the command tree around it.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	cfg, err := config.Load(configArg(args))
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}

	app := &cli.Command{
		Name:  "sitedata",
		Usage: "fetch, cache and snapshot site JSON documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "config file",
				Value: cfg.Source,
			},
			&cli.StringFlag{
				Name:    "base",
				Aliases: []string{"b"},
				Usage:   "where documents live: directory, http(s) URL or s3:// prefix",
				Value:   cfg.Base,
				Sources: cli.NewValueSourceChain(cli.EnvVar("FETCHCACHE_BASE")),
			},
			&cli.IntFlag{
				Name:  "capacity",
				Usage: "maximum cached documents",
				Value: cfg.Cache.Capacity,
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "how long a cached document stays fresh",
				Value: cfg.Cache.TTL,
			},
			&cli.StringFlag{
				Name:  "snapshot-dir",
				Usage: "directory for document snapshots",
				Value: cfg.Snapshot.Dir,
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "store snapshots in redis instead of a directory",
				Value:   cfg.Snapshot.RedisURL,
				Sources: cli.NewValueSourceChain(cli.EnvVar("FETCHCACHE_REDIS_URL")),
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "serve prometheus metrics on this address while running",
				Value: cfg.Metrics,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, rt.build(ctx, cmd)
		},
		After: func(context.Context, *cli.Command) error {
			rt.close()
			return nil
		},
	}

	app.Commands = append(app.Commands,
		GetCommandBuilder(rt),
		PreloadCommandBuilder(rt),
		SnapshotCommandBuilder(rt),
	)

	return app, nil
}

// configArg digs --config out of args before flags are parsed, since the
// config supplies flag defaults.
func configArg(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config=")
		}
	}
	return ""
}

func (rt *runtime) build(ctx context.Context, cmd *cli.Command) error {
	var m types.Metrics
	if addr := cmd.String("metrics-addr"); addr != "" {
		m = metrics.NewPrometheus(prometheus.DefaultRegisterer).ForCache("sitedata")
		rt.serveMetrics(addr)
	}

	snaps, err := rt.snapshotStore(ctx, cmd)
	if err != nil {
		return err
	}

	var wp writepolicy.WritePolicy
	switch rt.cfg.Cache.WritePolicy {
	case "through", "back":
		if snaps == nil {
			return fmt.Errorf("write policy %q needs --snapshot-dir or --redis-url", rt.cfg.Cache.WritePolicy)
		}
		if rt.cfg.Cache.WritePolicy == "through" {
			wp = writepolicy.NewWriteThroughPolicy(snaps, nil)
		} else {
			wp = writepolicy.NewWriteBackPolicy(snaps, rt.cfg.Cache.WriteBuffer, nil)
		}
	}

	eng := engine.NewCacheEngine(
		&expiration.ExpireAfterWrite{TTL: cmd.Duration("ttl")},
		rt.newFetcher(cmd.String("base")),
		wp,
		m,
		log.Log,
	)
	c, err := fetchcache.NewFetchCache(int(cmd.Int("capacity")), eviction.FIFO, eng)
	if err != nil {
		return err
	}
	rt.cache = c
	rt.closers = append(rt.closers, c.Close)

	rt.loader = site.NewLoader(c, cmd.String("base"))
	// an in-memory store would vanish with the process, so the CLI only
	// snapshots to a directory or redis
	rt.loader.Snapshots = snaps
	return nil
}

func (rt *runtime) snapshotStore(ctx context.Context, cmd *cli.Command) (types.SnapshotStore, error) {
	if u := cmd.String("redis-url"); u != "" {
		rs, err := snapshot.NewRedisStore(ctx, u, rt.cfg.Snapshot.TTL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = rs.Close() })
		return rs, nil
	}
	if d := cmd.String("snapshot-dir"); d != "" {
		return snapshot.NewFileStore(d), nil
	}
	return nil, nil
}

// newFetcher routes keys by scheme. Relative paths resolve against base
// when it is a directory.
func (rt *runtime) newFetcher(base string) types.Fetcher {
	root := ""
	if !strings.Contains(base, "://") {
		root = "."
	}

	httpFetcher := fetcher.NewHTTPFetcher(
		fetcher.WithTimeout(rt.cfg.HTTP.Timeout),
		fetcher.WithMaxRetries(rt.cfg.HTTP.Retries),
		fetcher.WithLogger(log.Log),
	)

	var (
		once sync.Once
		s3f  *fetcher.S3Fetcher
		s3e  error
	)
	lazyS3 := types.FetcherFunc(func(ctx context.Context, key string) (any, error) {
		once.Do(func() {
			s3f, s3e = fetcher.NewS3FetcherFromEnv(ctx, rt.cfg.Region)
		})
		if s3e != nil {
			return nil, s3e
		}
		return s3f.Fetch(ctx, key)
	})

	return fetcher.NewMux().
		Handle(fetcher.NewFileFetcher(root), "", "file").
		Handle(httpFetcher, "http", "https").
		Handle(lazyS3, "s3")
}

func (rt *runtime) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	rt.closers = append(rt.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}
