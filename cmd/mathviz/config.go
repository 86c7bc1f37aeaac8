package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mathviz/internal/config"
	"mathviz/internal/tui/setupmenu"
)

func (a *app) configCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage the mathviz configuration file",
	}
	c.AddCommand(a.configInitCmd(), a.configShowCmd())
	return c
}

func (a *app) configInitCmd() *cobra.Command {
	var (
		force      bool
		mirrorRoot string
		remote     string
	)

	c := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ConfigPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to check config file: %w", err)
			}

			cfg := config.DefaultConfig()
			if mirrorRoot != "" {
				root, err := setupmenu.ValidateMirrorRoot(mirrorRoot)
				if err != nil {
					return err
				}
				cfg.MirrorRoot = root
			}
			if err := setupmenu.ValidateRemoteURL(remote); err != nil {
				return err
			}
			cfg.Archive.RemoteURL = remote
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}

			a.logger.Info("Configuration written", "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	c.Flags().StringVar(&mirrorRoot, "mirror-root", "", "absolute path of the mirrored directory tree")
	c.Flags().StringVar(&remote, "remote", "", "git remote the archive pushes to")
	return c
}

func (a *app) configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			source := config.ConfigPath()
			if errors.Is(err, config.ErrNoConfig) {
				def := config.DefaultConfig()
				cfg, err = &def, nil
				source += " (not found, showing defaults)"
			}
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", source, data)
			return nil
		},
	}
}
