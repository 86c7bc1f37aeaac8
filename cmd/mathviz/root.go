package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"mathviz/internal/config"
	"mathviz/internal/logging"
	"mathviz/internal/pipeline"
	"mathviz/internal/report"
	"mathviz/internal/storage"
	"mathviz/internal/tui"
	"mathviz/internal/tui/helpers"
	"mathviz/internal/tui/setupmenu"
)

// styleTimeout bounds the terminal background query used to pick a markdown style.
const styleTimeout = 500 * time.Millisecond

// app carries state shared by all commands.
type app struct {
	logger     *logging.AppLogger
	configPath string
	verbose    bool
}

// newRootCmd builds the command tree. A nil logger means the application logger.
func newRootCmd(logger *logging.AppLogger) *cobra.Command {
	a := &app{logger: logger}

	cmd := &cobra.Command{
		Use:          "mathviz",
		Short:        "Turn plain-language math descriptions into Manim animations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.configPath != "" {
				if err := os.Setenv(config.EnvConfigPath, a.configPath); err != nil {
					return fmt.Errorf("failed to set config path: %w", err)
				}
			}
			switch {
			case a.logger != nil:
			case a.verbose:
				a.logger = logging.NewWriterLogger(cmd.ErrOrStderr(), log.DebugLevel)
			default:
				a.logger = logging.NewAppLogger()
			}
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.runTUI()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/mathviz/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log everything to stderr")
	cmd.AddCommand(
		a.mcpCmd(),
		a.generateCmd(),
		a.renderCmd(),
		a.noteCmd(),
		a.configCmd(),
	)
	return cmd
}

func (a *app) runTUI() error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrNoConfig) {
		if err := a.runFirstTimeSetup(); err != nil {
			return err
		}
		a.logger.Debug("First run setup completed successfully.")
		cfg, err = config.Load()
	}
	if err != nil {
		a.logger.Error("Error loading config", "error", err)
		return err
	}
	a.logger.Info("Configuration loaded successfully.", "mirror", cfg.MirrorRoot)

	// Query the terminal before the alternate screen takes over.
	style := report.DetectStyle(styleTimeout)

	model := tui.NewMainModel(cfg, a.logger, tui.WithMarkdownStyle(style))
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		a.logger.Error("Error starting TUI program", "error", err)
		return err
	}
	return nil
}

// runFirstTimeSetup runs the setup wizard as its own program. Cancelling it stops
// the application since nothing can run without a configuration.
func (a *app) runFirstTimeSetup() error {
	ctx := helpers.NewUIContext(0, 0, nil, a.logger)
	program := tea.NewProgram(setupmenu.NewSetupModel(ctx), tea.WithAltScreen())

	finalModel, err := program.Run()
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	if setup, ok := finalModel.(*setupmenu.SetupModel); !ok || setup.Cancelled {
		return fmt.Errorf("setup cancelled by user")
	}
	return nil
}

// loadConfig returns the configuration, or the defaults when none was written yet.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func (a *app) newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.Default(pipeline.WithLogger(a.logger))
}

func (a *app) openMirror(cfg *config.Config) (*storage.Mirror, error) {
	policy := storage.Policy{Allowed: cfg.AllowedPaths, Forbidden: cfg.ForbiddenPaths}
	mirror, err := storage.Open(cfg.MirrorRoot, policy, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror: %w", err)
	}
	return mirror, nil
}

// generate runs the pipeline with validation and turns a failed run into an error.
func (a *app) generate(description string) (pipeline.Result, error) {
	p, err := a.newPipeline()
	if err != nil {
		return pipeline.Result{}, err
	}
	res := p.Process(description, true)
	if !res.Success {
		return res, errors.New(res.Error)
	}
	return res, nil
}
