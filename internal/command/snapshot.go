package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func SnapshotCommandBuilder(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "save documents to, or read them from, the snapshot store",
		Commands: []*cli.Command{
			{
				Name:      "save",
				Usage:     "fetch a document and store a snapshot of it",
				UsageText: "sitedata snapshot save <key> [name]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return SnapshotSaveAction(ctx, cmd, rt)
				},
			},
			{
				Name:      "load",
				Usage:     "print a stored snapshot",
				UsageText: "sitedata snapshot load <name>",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return SnapshotLoadAction(ctx, cmd, rt)
				},
			},
		},
	}
}

// SnapshotSaveAction stores the document under name, which defaults to
// the key as given on the command line.
func SnapshotSaveAction(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	if cmd.Args().Len() < 1 || cmd.Args().Len() > 2 {
		return fmt.Errorf("snapshot save needs a key and an optional name")
	}
	key := cmd.Args().Get(0)
	name := key
	if cmd.Args().Len() == 2 {
		name = cmd.Args().Get(1)
	}

	v, err := rt.cache.Get(ctx, rt.resolve(key))
	if err != nil {
		return err
	}
	if err := rt.loader.SaveSnapshot(ctx, name, v); err != nil {
		return err
	}
	fmt.Fprintf(writer(cmd), "saved %s\n", name)
	return nil
}

func SnapshotLoadAction(ctx context.Context, cmd *cli.Command, rt *runtime) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("snapshot load needs exactly one name")
	}
	name := cmd.Args().First()

	v, ok, err := rt.loader.LoadSnapshot(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no snapshot named %s", name)
	}
	return writeJSON(writer(cmd), v, "")
}
