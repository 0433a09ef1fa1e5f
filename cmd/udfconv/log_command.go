package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"udfconv/internal/config"
	"udfconv/internal/fileutil"
	"udfconv/internal/logging"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var saveFlag string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the log file location, or save a copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			path := logging.FilePath(cfg)
			if path == "" {
				return fmt.Errorf("no log directory configured")
			}
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no log file at %s", path)
			}

			if saveFlag == "" {
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			dest, err := config.ExpandPath(saveFlag)
			if err != nil {
				return err
			}
			if err := fileutil.CopyFile(path, dest); err != nil {
				return fmt.Errorf("save log: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved log to %s\n", dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&saveFlag, "save", "", "Copy the log file to this path")
	return cmd
}
