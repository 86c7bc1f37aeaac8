package helpers

import (
	"mathviz/internal/config"
	"mathviz/internal/logging"
)

// NavigateToMainMenuMsg asks the root model to close the active screen.
type NavigateToMainMenuMsg struct{}

// UIContext carries what a screen needs when it is created.
type UIContext struct {
	Width  int
	Height int
	Config *config.Config
	Logger *logging.AppLogger
}

// NewUIContext creates a new UI context with the provided parameters
func NewUIContext(width, height int, config *config.Config, logger *logging.AppLogger) UIContext {
	return UIContext{
		Width:  width,
		Height: height,
		Config: config,
		Logger: logger,
	}
}

// HasValidDimensions checks if the context has valid window dimensions
func (ctx UIContext) HasValidDimensions() bool {
	return ctx.Width > 0 && ctx.Height > 0
}

// HasConfig reports whether a loaded configuration is available.
func (ctx UIContext) HasConfig() bool {
	return ctx.Config != nil
}
