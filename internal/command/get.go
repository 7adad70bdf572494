package command

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/apex/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

func GetCommandBuilder(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "fetch one JSON document and print it",
		UsageText: "sitedata get [options] <key>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "bypass the cache",
			},
			&cli.IntFlag{
				Name:  "retry",
				Usage: "attempts before giving up; retries always bypass the cache",
				Value: rt.cfg.Retry.Attempts,
				Sources: cli.NewValueSourceChain(
					yaml.YAML("get.retry", altsrc.StringSourcer(rt.cfg.Source)),
				),
			},
			&cli.StringFlag{
				Name:    "query",
				Aliases: []string{"q"},
				Usage:   "gjson path selecting part of the document",
				Sources: cli.NewValueSourceChain(
					yaml.YAML("get.query", altsrc.StringSourcer(rt.cfg.Source)),
				),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return GetCommandAction(ctx, cmd, rt)
		},
	}
}

func GetCommandAction(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("get needs exactly one key")
	}
	key := rt.resolve(cmd.Args().First())

	v, err := rt.get(ctx, key, int(cmd.Int("retry")), !cmd.Bool("no-cache"))
	if err != nil {
		return err
	}

	return writeJSON(writer(cmd), v, cmd.String("query"))
}

/*
get makes up to attempts retrievals of key in total. With useCache the
first one is a normal cached Get and only the retries bypass the cache;
without it every attempt is uncached. attempts below 1 counts as 1.
*/
func (rt *runtime) get(ctx context.Context, key string, attempts int, useCache bool) (any, error) {
	delay := rt.cfg.Retry.Delay
	if !useCache {
		return rt.cache.GetWithRetry(ctx, key, attempts, delay)
	}

	v, err := rt.cache.Get(ctx, key)
	if err == nil || attempts <= 1 || ctx.Err() != nil {
		return v, err
	}
	log.WithError(err).WithField("key", key).Warnf("attempt 1/%d failed", attempts)

	t := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		t.Stop()
		return nil, ctx.Err()
	case <-t.C:
	}
	return rt.cache.GetWithRetry(ctx, key, attempts-1, delay)
}

// resolve leaves URLs and absolute paths alone and puts anything else
// under the base.
func (rt *runtime) resolve(key string) string {
	if u, err := url.Parse(key); err == nil && u.Scheme != "" {
		return key
	}
	if filepath.IsAbs(key) {
		return key
	}
	return rt.loader.Key(key)
}
