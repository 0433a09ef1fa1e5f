package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"udfconv/internal/config"
	"udfconv/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the conversion queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueRequeueCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				filter := make(map[queue.Status]struct{}, len(listStatuses))
				for _, value := range listStatuses {
					status, ok := queue.ParseStatus(value)
					if !ok {
						return fmt.Errorf("unknown status %q", value)
					}
					filter[status] = struct{}{}
				}

				items, err := store.List(cmd.Context())
				if err != nil {
					return err
				}

				formats := cfg.Conversion.Formats
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					if len(filter) > 0 {
						if _, ok := filter[item.Status]; !ok {
							continue
						}
					}
					rows = append(rows, buildQueueListRow(item, formats))
				}
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				headers := append([]string{"ID", "Title", "Status"}, formats...)
				headers = append(headers, "Error")
				aligns := make([]columnAlignment, len(headers))
				aligns[0] = alignRight

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

// buildQueueListRow renders one item with a per-format indicator column:
// a check mark for written outputs, a tilde for pre-existing ones.
func buildQueueListRow(item *queue.Item, formats []string) []string {
	row := []string{
		strconv.FormatInt(item.ID, 10),
		queue.DisplayTitle(item.SourcePath),
		string(item.Status),
	}
	for _, format := range formats {
		switch item.FormatNotes[format] {
		case queue.FormatWritten:
			row = append(row, "✔")
		case queue.FormatExisting:
			row = append(row, "~")
		default:
			row = append(row, "")
		}
	}
	row = append(row, item.ErrorMessage)
	return row
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if len(stats) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				var rows [][]string
				for _, status := range queue.AllStatuses() {
					if count := stats[status]; count > 0 {
						rows = append(rows, []string{string(status), strconv.Itoa(count)})
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Status", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>...",
		Short: "Remove items from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if store.RunActive() {
					fmt.Fprintln(out, "A conversion run is active; queue not modified")
					return nil
				}
				for _, arg := range args {
					id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid item id %q", arg)
					}
					removed, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if removed {
						fmt.Fprintf(out, "Removed item #%d\n", id)
					} else {
						fmt.Fprintf(out, "Item #%d not found\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all items from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if store.RunActive() {
					fmt.Fprintln(out, "A conversion run is active; queue not modified")
					return nil
				}
				cleared, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d item(s)\n", cleared)
				return nil
			})
		},
	}
}

func newQueueRequeueCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue [id]...",
		Short: "Return finished items to the queue for another run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if store.RunActive() {
					fmt.Fprintln(out, "A conversion run is active; queue not modified")
					return nil
				}
				ids := make([]int64, 0, len(args))
				for _, arg := range args {
					id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid item id %q", arg)
					}
					ids = append(ids, id)
				}
				requeued, err := store.Requeue(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Requeued %d item(s)\n", requeued)
				return nil
			})
		},
	}
}
