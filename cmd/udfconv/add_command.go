package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"udfconv/internal/config"
	"udfconv/internal/queue"
)

// Only measurement containers are accepted; anything else is reported and
// skipped so a glob over a mixed directory stays usable.
var acceptedExtensions = map[string]struct{}{
	".udf": {},
	".bin": {},
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <file>...",
		Short: "Add measurement files to the conversion queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				added := 0
				for _, arg := range args {
					path, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}

					ext := strings.ToLower(filepath.Ext(path))
					if _, ok := acceptedExtensions[ext]; !ok {
						fmt.Fprintf(out, "Skipping %s: not a UDF or BIN file\n", filepath.Base(path))
						continue
					}

					item, wasAdded, err := store.Enqueue(cmd.Context(), path)
					if err != nil {
						return err
					}
					switch {
					case item == nil:
						fmt.Fprintf(out, "Skipping %s: file not found\n", filepath.Base(path))
					case !wasAdded:
						fmt.Fprintf(out, "Already queued: %s\n", filepath.Base(path))
					default:
						fmt.Fprintf(out, "Queued %s (#%d)\n", filepath.Base(item.SourcePath), item.ID)
						added++
					}
				}
				if added > 0 {
					fmt.Fprintf(out, "Added %d file(s) to the queue\n", added)
				}
				return nil
			})
		},
	}
}
