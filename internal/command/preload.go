package command

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

func PreloadCommandBuilder(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "preload",
		Usage: "load config, content and team documents and summarise them",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "keep reloading at this interval until interrupted",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return PreloadCommandAction(ctx, cmd, rt)
		},
	}
}

func PreloadCommandAction(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	w := writer(cmd)
	interval := cmd.Duration("interval")

	for {
		if err := preloadOnce(ctx, w, rt); err != nil {
			return err
		}
		if interval <= 0 {
			return nil
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			log.Debug("preload loop stopped")
			return nil
		case <-t.C:
		}
	}
}

func preloadOnce(ctx context.Context, w io.Writer, rt *runtime) error {
	all := rt.loader.PreloadAll(ctx)
	for _, name := range []string{"config", "content", "team"} {
		if all[name] == nil {
			fmt.Fprintf(w, "%-8s unavailable, using defaults\n", name)
		}
	}

	// served from the cache warmed above; failures were already reported
	cfg, _ := rt.loader.LoadConfig(ctx)
	content, _ := rt.loader.LoadContent(ctx)
	team, _ := rt.loader.LoadTeam(ctx)

	fmt.Fprintf(w, "site     %s %s (theme %s)\n", cfg.SiteName, cfg.Version, cfg.Theme)
	if content.Hero != nil {
		fmt.Fprintf(w, "hero     %s\n", content.Hero.Title)
	}
	if content.Research != nil {
		fmt.Fprintf(w, "research %d items\n", len(content.Research.Items))
	}
	if content.Downloads != nil {
		fmt.Fprintf(w, "download %d items\n", len(content.Downloads.Items))
	}
	fmt.Fprintf(w, "team     %d members\n", len(team.Members))

	st := rt.cache.Stats()
	fmt.Fprintf(w, "cache    %d entries, %d pending\n", st.Size, st.Pending)
	for _, e := range rt.cache.Entries() {
		fmt.Fprintf(w, "  %s (stored %s)\n", e.Key, humanize.Time(e.StoredAt))
	}
	return nil
}
