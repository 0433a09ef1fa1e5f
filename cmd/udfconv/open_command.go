package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"udfconv/internal/pathplan"
)

func newOpenCommand(ctx *commandContext) *cobra.Command {
	var subfolderFlag bool

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the output directory in the file manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.OutputDir == "" {
				return fmt.Errorf("no output directory configured")
			}

			dir := pathplan.BaseDir(cfg.Paths.OutputDir, subfolderFlag || cfg.Conversion.UseSubfolder)

			opener := "xdg-open"
			if runtime.GOOS == "darwin" {
				opener = "open"
			}
			if err := exec.Command(opener, dir).Start(); err != nil {
				return fmt.Errorf("open %s: %w", dir, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&subfolderFlag, "subfolder", false, "Open the UDF_Exports subfolder")
	return cmd
}
