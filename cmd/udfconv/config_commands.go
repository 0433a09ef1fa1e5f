package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"udfconv/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigSetCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := [][]string{
				{"output_dir", cfg.Paths.OutputDir},
				{"state_dir", cfg.Paths.StateDir},
				{"log_dir", cfg.Paths.LogDir},
				{"formats", strings.Join(cfg.Conversion.Formats, ", ")},
				{"apply_scaling", yesNo(cfg.Conversion.ApplyScaling)},
				{"use_subfolder", yesNo(cfg.Conversion.UseSubfolder)},
				{"timestamp_suffix", yesNo(cfg.Conversion.TimestampSuffix)},
				{"skip_existing", yesNo(cfg.Conversion.SkipExisting)},
				{"zip_outputs", yesNo(cfg.Conversion.ZipOutputs)},
				{"user_message", cfg.Conversion.UserMessage},
				{"decoder_binary", cfg.Decoder.Binary},
				{"ntfy_topic", cfg.Notifications.NtfyTopic},
				{"log_level", cfg.Logging.Level},
			}

			out := cmd.OutOrStdout()
			if ctx.configPath != "" {
				fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			}
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set paths.output_dir before converting.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			key := strings.ToLower(strings.TrimSpace(args[0]))
			value := args[1]
			if err := applyConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			path := ctx.configPath
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s and saved %s\n", key, path)
			return nil
		},
	}
}

func applyConfigValue(cfg *config.Config, key, value string) error {
	parseBool := func() (bool, error) {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		default:
			return false, fmt.Errorf("%s expects a boolean, got %q", key, value)
		}
	}

	switch key {
	case "output_dir":
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return err
		}
		cfg.Paths.OutputDir = expanded
	case "formats":
		parts := strings.Split(value, ",")
		formats := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				formats = append(formats, trimmed)
			}
		}
		cfg.Conversion.Formats = formats
	case "apply_scaling", "use_subfolder", "timestamp_suffix", "skip_existing", "zip_outputs":
		parsed, err := parseBool()
		if err != nil {
			return err
		}
		switch key {
		case "apply_scaling":
			cfg.Conversion.ApplyScaling = parsed
		case "use_subfolder":
			cfg.Conversion.UseSubfolder = parsed
		case "timestamp_suffix":
			cfg.Conversion.TimestampSuffix = parsed
		case "skip_existing":
			cfg.Conversion.SkipExisting = parsed
		case "zip_outputs":
			cfg.Conversion.ZipOutputs = parsed
		}
	case "user_message":
		cfg.Conversion.UserMessage = value
	case "decoder_binary":
		cfg.Decoder.Binary = value
	case "ntfy_topic":
		cfg.Notifications.NtfyTopic = value
	case "log_level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}
	return nil
}
