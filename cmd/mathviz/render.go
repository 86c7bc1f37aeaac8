package main

import (
	"fmt"
	"os"
	"os/signal"
	"path"
	"time"

	"github.com/spf13/cobra"

	"mathviz/internal/animation"
	"mathviz/internal/codegen"
	"mathviz/internal/render"
	"mathviz/pkg/fileops"
)

func (a *app) renderCmd() *cobra.Command {
	var quality string

	c := &cobra.Command{
		Use:   `render "<description>"`,
		Short: "Generate a scene, save it to the mirror and render it with Manim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			res, err := a.generate(args[0])
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}
			if err := fileops.ValidateScriptSecurity(res.SourceText); err != nil {
				return fmt.Errorf("generated script rejected: %w", err)
			}

			q := cfg.Quality(res.Snapshot.Parameters.Quality)
			if quality != "" {
				if q, err = animation.ParseQuality(quality); err != nil {
					return err
				}
			}

			mirror, err := a.openMirror(cfg)
			if err != nil {
				return err
			}
			defer mirror.Close()

			script, err := mirror.Write(path.Join(cfg.OutputDir, render.ScriptName(res.SourceText)), res.SourceText, true)
			if err != nil {
				return fmt.Errorf("save failed: %w", err)
			}
			abs, err := mirror.Abs(script)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "script: %s\n", script)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			renderer := render.New(
				render.WithCommand(cfg.Render.Command),
				render.WithTimeout(cfg.Render.Timeout),
				render.WithLogger(a.logger),
			)
			out, err := renderer.Render(ctx, abs, codegen.SceneName, q)
			if err != nil {
				return fmt.Errorf("render failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "video: %s\nquality: %s\nduration: %s\n", out.VideoPath, out.Quality, out.Duration.Round(time.Millisecond))
			return nil
		},
	}

	c.Flags().StringVarP(&quality, "quality", "q", "", "render quality: preview, standard or 4k (default from the description)")
	return c
}
