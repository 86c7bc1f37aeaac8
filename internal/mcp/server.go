package mcp

import (
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"mathviz/internal/archive"
	"mathviz/internal/config"
	"mathviz/internal/credentials"
	"mathviz/internal/logging"
	"mathviz/internal/notes"
	"mathviz/internal/pipeline"
	"mathviz/internal/render"
	"mathviz/internal/storage"
)

const (
	serverName    = "mathviz"
	serverVersion = "1.0.0"
)

// Server represents an MCP server instance using mcp-go
type Server struct {
	config    *config.Config
	logger    *logging.AppLogger
	pipeline  *pipeline.Pipeline
	mirror    *storage.Mirror
	renderer  *render.Renderer
	notes     *notes.Ingestor
	tokens    archive.TokenSource
	mcpServer *server.MCPServer

	archiveOnce sync.Once
	archive     *archive.Archive
	archiveErr  error
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, logger *logging.AppLogger) *Server {
	if logger == nil {
		logger = logging.GetDefault()
	}
	return &Server{
		config: cfg,
		logger: logger,
		tokens: credentials.NewManager(),
	}
}

// initializeComponents opens the mirror and builds the collaborators and the tool
// registry without starting any transport.
func (s *Server) initializeComponents() error {
	if s.config == nil {
		return fmt.Errorf("configuration not loaded")
	}

	p, err := pipeline.Default(pipeline.WithLogger(s.logger))
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	s.pipeline = p

	policy := storage.Policy{Allowed: s.config.AllowedPaths, Forbidden: s.config.ForbiddenPaths}
	s.mirror, err = storage.Open(s.config.MirrorRoot, policy, s.logger)
	if err != nil {
		return fmt.Errorf("failed to open mirror: %w", err)
	}

	s.renderer = render.New(
		render.WithCommand(s.config.Render.Command),
		render.WithTimeout(s.config.Render.Timeout),
		render.WithLogger(s.logger),
	)

	s.notes, err = notes.NewIngestor(s.mirror, s.config.Notes.VaultDir, s.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize notes: %w", err)
	}

	s.mcpServer = server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()

	s.logger.Info("MCP server components initialized", "mirror", s.mirror.Dir())
	return nil
}

// Start initializes the server and serves MCP over stdio until stdin closes.
func (s *Server) Start() error {
	s.logger.Info("Initializing MCP server")
	if err := s.initializeComponents(); err != nil {
		return err
	}

	s.logger.Info("MCP server created, starting stdio communication")
	if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(s.logger.StandardLog())); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Stop releases the mirror.
func (s *Server) Stop() error {
	s.logger.Info("Stopping MCP server")
	if s.mirror != nil {
		return s.mirror.Close()
	}
	return nil
}

// openArchive opens the archive on first use so servers without archive settings
// never create a repository.
func (s *Server) openArchive() (*archive.Archive, error) {
	s.archiveOnce.Do(func() {
		s.archive, s.archiveErr = archive.Open(archive.Options{
			Path:      s.config.Archive.Path,
			RemoteURL: s.config.Archive.RemoteURL,
			Branch:    s.config.Archive.Branch,
			Tokens:    s.tokens,
			Logger:    s.logger,
		})
	})
	return s.archive, s.archiveErr
}
