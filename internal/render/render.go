// Package render drives the external Manim command line renderer.
package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"mathviz/internal/animation"
	"mathviz/internal/logging"
)

var (
	ErrRendererMissing = errors.New("renderer command not found")
	ErrNoVideo         = errors.New("renderer produced no video")
)

const (
	DefaultCommand = "manim"
	DefaultTimeout = 10 * time.Minute
	// maxOutputTail bounds how much renderer output is kept for error messages.
	maxOutputTail = 2000
)

// qualityFolders lists the folders Manim writes videos to, most common first.
var qualityFolders = []string{"480p15", "720p30", "1080p30", "1080p60", "2160p60"}

// Flag maps a quality tier to the renderer's -q flag.
func Flag(q animation.Quality) string {
	switch q {
	case animation.QualityPreview:
		return "l"
	case animation.Quality4K:
		return "k"
	default:
		return "m"
	}
}

func folderFor(flag string) string {
	switch flag {
	case "l":
		return "480p15"
	case "h":
		return "1080p60"
	case "k":
		return "2160p60"
	default:
		return "720p30"
	}
}

// ScriptName derives a stable file name for a scene script from its source.
func ScriptName(source string) string {
	sum := sha256.Sum256([]byte(source))
	return "anim_" + hex.EncodeToString(sum[:])[:8] + ".py"
}

// Output describes a finished render.
type Output struct {
	VideoPath string        `json:"video_path"`
	Quality   string        `json:"quality"`
	Duration  time.Duration `json:"duration"`
	Log       string        `json:"log,omitempty"`
}

// Renderer runs the renderer command. The zero value is not usable; use New.
type Renderer struct {
	command string
	timeout time.Duration
	logger  *logging.AppLogger
}

// Option configures a Renderer.
type Option func(*Renderer)

func WithCommand(command string) Option {
	return func(r *Renderer) {
		if strings.TrimSpace(command) != "" {
			r.command = command
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithLogger(logger *logging.AppLogger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func New(opts ...Option) *Renderer {
	r := &Renderer{
		command: DefaultCommand,
		timeout: DefaultTimeout,
		logger:  logging.GetDefault(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether the renderer command can be found.
func (r *Renderer) Available() error {
	if _, err := exec.LookPath(r.command); err != nil {
		return fmt.Errorf("%w: %s", ErrRendererMissing, r.command)
	}
	return nil
}

func (r *Renderer) buildArgs(script, scene, flag string) []string {
	return []string{"-q", flag, "--disable_caching", filepath.Base(script), scene}
}

// Render renders scene from the script at scriptPath. The renderer runs in the script's
// directory and is killed when ctx is done or the timeout elapses.
func (r *Renderer) Render(ctx context.Context, scriptPath, scene string, quality animation.Quality) (*Output, error) {
	if err := r.Available(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("script not accessible: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	flag := Flag(quality)
	dir := filepath.Dir(scriptPath)
	cmd := exec.CommandContext(ctx, r.command, r.buildArgs(scriptPath, scene, flag)...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	r.logger.Info("Rendering scene", "script", scriptPath, "scene", scene, "quality", flag)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("render cancelled: %w", ctx.Err())
		}
		r.logger.Error("Renderer failed", "script", scriptPath, "error", err)
		return nil, fmt.Errorf("renderer failed: %v, output: %s", err, tail(out.String()))
	}

	stem := strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	video, err := findVideo(filepath.Join(dir, "media", "videos", stem), folderFor(flag), scene)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	r.logger.Info("Render complete", "video", video, "duration", elapsed)
	return &Output{VideoPath: video, Quality: flag, Duration: elapsed, Log: tail(out.String())}, nil
}

// findVideo looks in the expected quality folder, then in the other known folders,
// then anywhere below base.
func findVideo(base, preferred, scene string) (string, error) {
	folders := append([]string{preferred}, slices.DeleteFunc(slices.Clone(qualityFolders), func(f string) bool {
		return f == preferred
	})...)

	for _, folder := range folders {
		dir := filepath.Join(base, folder)
		if p := filepath.Join(dir, scene+".mp4"); fileExists(p) {
			return p, nil
		}
		if matches, _ := filepath.Glob(filepath.Join(dir, "*.mp4")); len(matches) > 0 {
			return matches[0], nil
		}
	}

	var found string
	_ = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".mp4") && !strings.Contains(p, "partial_movie_files") {
			found = p
			return fs.SkipAll
		}
		return nil
	})
	if found == "" {
		return "", fmt.Errorf("%w under %s", ErrNoVideo, base)
	}
	return found, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func tail(s string) string {
	if len(s) <= maxOutputTail {
		return s
	}
	return s[len(s)-maxOutputTail:]
}
