package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"mathviz/internal/animation"
	"mathviz/internal/codegen"
	"mathviz/internal/notes"
	"mathviz/internal/pipeline"
	"mathviz/internal/render"
	"mathviz/internal/storage"
	"mathviz/pkg/fileops"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("nlp_to_manim",
		mcp.WithDescription("Convert a natural-language description of a mathematical animation into a Manim scene script"),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the animation should show")),
		mcp.WithBoolean("validate", mcp.DefaultBool(true), mcp.Description("Run the mathematical accuracy checks")),
	), s.handleNLPToManim)

	s.mcpServer.AddTool(mcp.NewTool("save_animation",
		mcp.WithDescription("Generate a Manim scene script and save it to the mirror"),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the animation should show")),
		mcp.WithString("path", mcp.Description("Target .py path relative to the mirror; defaults to the output directory")),
	), s.handleSaveAnimation)

	s.mcpServer.AddTool(mcp.NewTool("render_animation",
		mcp.WithDescription("Generate, save and render a Manim scene to video"),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the animation should show")),
		mcp.WithString("quality", mcp.Enum(string(animation.QualityPreview), string(animation.QualityStandard), string(animation.Quality4K)),
			mcp.Description("Render quality; defaults to the configured override or the quality in the description")),
	), s.handleRenderAnimation)

	s.mcpServer.AddTool(mcp.NewTool("ingest_animation_note",
		mcp.WithDescription("Write a knowledge-vault note describing a generated animation"),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the animation should show")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithArray("tags", mcp.WithStringItems(), mcp.Description("Note tags")),
		mcp.WithArray("links", mcp.WithStringItems(), mcp.Description("Titles of related notes")),
	), s.handleIngestNote)

	s.mcpServer.AddTool(mcp.NewTool("archive_animation",
		mcp.WithDescription("Commit a generated scene script to the archive repository"),
		mcp.WithString("description", mcp.Required(), mcp.Description("What the animation should show")),
		mcp.WithString("message", mcp.Description("Commit message")),
		mcp.WithBoolean("push", mcp.DefaultBool(false), mcp.Description("Push to the configured remote after committing")),
	), s.handleArchiveAnimation)

	s.mcpServer.AddTool(mcp.NewTool("list_animations",
		mcp.WithDescription("List a mirror folder; defaults to the animation output directory"),
		mcp.WithString("folder", mcp.Description("Folder relative to the mirror")),
		mcp.WithBoolean("include_hidden", mcp.DefaultBool(false), mcp.Description("Include dot files")),
	), s.handleListAnimations)

	s.mcpServer.AddTool(mcp.NewTool("read_animation",
		mcp.WithDescription("Read a file from the mirror"),
		mcp.WithString("path", mcp.Required(), mcp.Description("File path relative to the mirror")),
	), s.handleReadAnimation)

	s.mcpServer.AddTool(mcp.NewTool("search_mirror",
		mcp.WithDescription("Search the mirror by file name, folder name or content"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Case-insensitive search text")),
		mcp.WithString("search_type", mcp.Enum(string(storage.SearchFilename), string(storage.SearchContent), string(storage.SearchFolders)),
			mcp.Description("What to match against; defaults to filename")),
		mcp.WithString("under", mcp.Description("Folder to search below; defaults to the whole mirror")),
	), s.handleSearchMirror)

	s.mcpServer.AddTool(mcp.NewTool("build_notes_index",
		mcp.WithDescription("Regenerate the knowledge-vault index"),
		mcp.WithString("grouping", mcp.Enum(string(notes.ByCategory), string(notes.ByTag)), mcp.Description("How to group notes")),
	), s.handleBuildIndex)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toolError(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// generate runs the pipeline and turns a failed run into an error.
func (s *Server) generate(description string) (pipeline.Result, error) {
	res := s.pipeline.Process(description, true)
	if !res.Success {
		return res, errors.New(res.Error)
	}
	if err := fileops.ValidateScriptSecurity(res.SourceText); err != nil {
		return res, fmt.Errorf("generated script rejected: %w", err)
	}
	return res, nil
}

// saveScript writes the result's source to target, or to the output directory under
// its content-derived name when target is empty.
func (s *Server) saveScript(res pipeline.Result, target string) (string, error) {
	if strings.TrimSpace(target) == "" {
		target = path.Join(s.config.OutputDir, render.ScriptName(res.SourceText))
	}
	if !strings.HasSuffix(target, ".py") {
		return "", fmt.Errorf("script path must end in .py: %s", target)
	}
	return s.mirror.Write(target, res.SourceText, true)
}

func (s *Server) handleNLPToManim(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return toolError("%v", err)
	}
	validate := req.GetBool("validate", true)

	res := s.pipeline.Process(description, validate)
	s.logger.Debug("nlp_to_manim processed", "success", res.Success)
	return jsonResult(res)
}

type savedAnimation struct {
	Result    pipeline.Result `json:"result"`
	SavedPath string          `json:"saved_path"`
}

func (s *Server) handleSaveAnimation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return toolError("%v", err)
	}

	res, err := s.generate(description)
	if err != nil {
		return toolError("generation failed: %v", err)
	}
	saved, err := s.saveScript(res, req.GetString("path", ""))
	if err != nil {
		return toolError("save failed: %v", err)
	}
	return jsonResult(savedAnimation{Result: res, SavedPath: saved})
}

type renderedAnimation struct {
	Result     pipeline.Result `json:"result"`
	ScriptPath string          `json:"script_path"`
	VideoPath  string          `json:"video_path"`
	Quality    string          `json:"quality"`
}

func (s *Server) handleRenderAnimation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return toolError("%v", err)
	}

	res, err := s.generate(description)
	if err != nil {
		return toolError("generation failed: %v", err)
	}

	quality := s.config.Quality(res.Snapshot.Parameters.Quality)
	if raw := req.GetString("quality", ""); raw != "" {
		if quality, err = animation.ParseQuality(raw); err != nil {
			return toolError("%v", err)
		}
	}

	script, err := s.saveScript(res, "")
	if err != nil {
		return toolError("save failed: %v", err)
	}
	abs, err := s.mirror.Abs(script)
	if err != nil {
		return toolError("save failed: %v", err)
	}

	out, err := s.renderer.Render(ctx, abs, codegen.SceneName, quality)
	if err != nil {
		return toolError("render failed: %v", err)
	}
	return jsonResult(renderedAnimation{Result: res, ScriptPath: script, VideoPath: out.VideoPath, Quality: out.Quality})
}

func (s *Server) handleIngestNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return toolError("%v", err)
	}
	title, err := req.RequireString("title")
	if err != nil {
		return toolError("%v", err)
	}

	res, err := s.generate(description)
	if err != nil {
		return toolError("generation failed: %v", err)
	}
	notePath, err := s.notes.WriteAnimationNote(title, res, req.GetStringSlice("tags", nil), req.GetStringSlice("links", nil))
	if err != nil {
		return toolError("note failed: %v", err)
	}
	return jsonResult(map[string]any{"note_path": notePath, "title": title})
}

func (s *Server) handleArchiveAnimation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := req.RequireString("description")
	if err != nil {
		return toolError("%v", err)
	}

	res, err := s.generate(description)
	if err != nil {
		return toolError("generation failed: %v", err)
	}
	snapshot, err := json.MarshalIndent(res.Snapshot, "", "  ")
	if err != nil {
		return toolError("failed to encode request: %v", err)
	}

	repo, err := s.openArchive()
	if err != nil {
		return toolError("archive unavailable: %v", err)
	}

	name := strings.TrimSuffix(render.ScriptName(res.SourceText), ".py")
	files := map[string]string{
		path.Join("scripts", name+".py"):   res.SourceText,
		path.Join("scripts", name+".json"): string(snapshot) + "\n",
	}
	message := req.GetString("message", "")
	if message == "" {
		message = "Add " + name + ": " + description
	}

	hash, err := repo.Commit(files, message)
	if err != nil {
		return toolError("commit failed: %v", err)
	}

	pushed := false
	if req.GetBool("push", false) {
		if err := repo.Push(ctx); err != nil {
			return toolError("committed %s but push failed: %v", hash, err)
		}
		pushed = true
	}
	return jsonResult(map[string]any{"commit": hash, "files": len(files), "pushed": pushed})
}

func (s *Server) handleListAnimations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetString("folder", s.config.OutputDir)
	entries, err := s.mirror.List(folder, req.GetBool("include_hidden", false))
	if err != nil {
		return toolError("list failed: %v", err)
	}
	return jsonResult(map[string]any{"folder": storage.Sanitize(folder), "entries": entries})
}

func (s *Server) handleReadAnimation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return toolError("%v", err)
	}
	content, err := s.mirror.Read(p)
	if err != nil {
		return toolError("read failed: %v", err)
	}
	return mcp.NewToolResultText(content), nil
}

func (s *Server) handleSearchMirror(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return toolError("%v", err)
	}
	kind, err := storage.ParseSearchKind(req.GetString("search_type", ""))
	if err != nil {
		return toolError("%v", err)
	}
	matches, err := s.mirror.Search(query, kind, req.GetString("under", ""))
	if err != nil {
		return toolError("search failed: %v", err)
	}
	return jsonResult(map[string]any{"query": query, "search_type": kind, "matches": matches})
}

func (s *Server) handleBuildIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	grouping, err := notes.ParseGrouping(req.GetString("grouping", ""))
	if err != nil {
		return toolError("%v", err)
	}
	indexPath, err := s.notes.BuildIndex(grouping)
	if err != nil {
		return toolError("index failed: %v", err)
	}
	return jsonResult(map[string]any{"index_path": indexPath, "grouping": grouping})
}
