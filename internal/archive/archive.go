// Package archive keeps generated scene scripts under version control.
//
// An Archive is a plain git repository on disk. Commit writes files into its
// worktree and records them in one commit; Push publishes the branch to the
// configured remote with a token from the OS credential store.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/config"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/object"
	"github.com/go-git/go-git/v6/plumbing/transport/http"

	"mathviz/internal/logging"
	"mathviz/pkg/fileops"
)

const (
	DefaultBranch = "main"
	remoteName    = "origin"
	authorName    = "mathviz"
	authorEmail   = "mathviz@localhost"
)

var (
	ErrNoRemote     = errors.New("no archive remote configured")
	ErrNothingToAdd = errors.New("no files to commit")
)

// TokenSource supplies the token used to authenticate pushes.
type TokenSource interface {
	Token() (string, error)
}

// Options configures an Archive.
type Options struct {
	Path      string
	RemoteURL string
	Branch    string
	Tokens    TokenSource
	Logger    *logging.AppLogger
}

// CommitInfo summarises one commit.
type CommitInfo struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	When    time.Time `json:"when"`
}

type Archive struct {
	path      string
	remoteURL string
	branch    string
	tokens    TokenSource
	logger    *logging.AppLogger
	repo      *git.Repository
	now       func() time.Time
}

// Open opens the repository at opts.Path, initialising it on the configured branch
// when the directory holds no repository yet.
func Open(opts Options) (*Archive, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("archive path cannot be empty")
	}
	a := &Archive{
		path:      fileops.ExpandPath(opts.Path),
		remoteURL: strings.TrimSpace(opts.RemoteURL),
		branch:    opts.Branch,
		tokens:    opts.Tokens,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if a.branch == "" {
		a.branch = DefaultBranch
	}
	if a.logger == nil {
		a.logger = logging.GetDefault()
	}

	repo, err := git.PlainOpen(a.path)
	switch {
	case err == nil:
		a.logger.Debug("Opened archive repository", "path", a.path)
	case errors.Is(err, git.ErrRepositoryNotExists):
		repo, err = a.initRepository()
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to open archive repository: %w", err)
	}
	a.repo = repo

	if a.remoteURL != "" {
		if err := a.ensureRemote(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Archive) initRepository() (*git.Repository, error) {
	if err := os.MkdirAll(a.path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	repo, err := git.PlainInit(a.path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise archive repository: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(a.branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, fmt.Errorf("failed to set archive branch: %w", err)
	}
	a.logger.Info("Initialised archive repository", "path", a.path, "branch", a.branch)
	return repo, nil
}

func (a *Archive) ensureRemote() error {
	remote, err := a.repo.Remote(remoteName)
	if err == nil {
		if slices.Contains(remote.Config().URLs, a.remoteURL) {
			return nil
		}
		if err := a.repo.DeleteRemote(remoteName); err != nil {
			return fmt.Errorf("failed to replace archive remote: %w", err)
		}
	} else if !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("failed to read archive remote: %w", err)
	}

	_, err = a.repo.CreateRemote(&config.RemoteConfig{Name: remoteName, URLs: []string{a.remoteURL}})
	if err != nil {
		return fmt.Errorf("failed to configure archive remote: %w", err)
	}
	return nil
}

// Path returns the worktree directory.
func (a *Archive) Path() string {
	return a.path
}

// Commit writes files (relative path to content) into the worktree and commits them.
// It returns the new commit hash.
func (a *Archive) Commit(files map[string]string, message string) (string, error) {
	if len(files) == 0 {
		return "", ErrNothingToAdd
	}
	if strings.TrimSpace(message) == "" {
		message = "Add generated animation"
	}

	root, err := os.OpenRoot(a.path)
	if err != nil {
		return "", fmt.Errorf("failed to open archive worktree: %w", err)
	}
	defer root.Close()

	worktree, err := a.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get working tree: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		rel, err := fileops.CleanRelative(name)
		if err != nil {
			return "", fmt.Errorf("invalid archive path %q: %w", name, err)
		}
		if strings.HasPrefix(rel, ".git/") || rel == ".git" {
			return "", fmt.Errorf("invalid archive path %q: %w", name, fileops.ErrPathTraversal)
		}
		if err := fileops.AtomicWrite(root, rel, []byte(files[name]), 0o644); err != nil {
			return "", err
		}
		if _, err := worktree.Add(filepath.FromSlash(rel)); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", rel, err)
		}
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  a.now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	a.logger.Info("Archived files", "commit", hash.String(), "files", len(names))
	return hash.String(), nil
}

// History returns up to n commits, newest first. n <= 0 means all.
func (a *Archive) History(n int) ([]CommitInfo, error) {
	iter, err := a.repo.Log(&git.LogOptions{})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []CommitInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer iter.Close()

	history := []CommitInfo{}
	errStop := errors.New("stop")
	err = iter.ForEach(func(c *object.Commit) error {
		if n > 0 && len(history) >= n {
			return errStop
		}
		history = append(history, CommitInfo{
			Hash:    c.Hash.String(),
			Message: strings.TrimSpace(c.Message),
			When:    c.Author.When,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return history, nil
}

func (a *Archive) auth() (*http.BasicAuth, error) {
	if !strings.HasPrefix(a.remoteURL, "https://") && !strings.HasPrefix(a.remoteURL, "http://") {
		return nil, nil
	}
	if a.tokens == nil {
		return nil, fmt.Errorf("no credential source for %s", a.remoteURL)
	}
	token, err := a.tokens.Token()
	if err != nil {
		return nil, err
	}
	return &http.BasicAuth{
		Username: "token",
		Password: token,
	}, nil
}

// Push publishes the archive branch. HTTP remotes authenticate with the stored token.
func (a *Archive) Push(ctx context.Context) error {
	if a.remoteURL == "" {
		return ErrNoRemote
	}
	auth, err := a.auth()
	if err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(a.branch)
	opts := &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{config.RefSpec(ref + ":" + ref)},
	}
	if auth != nil {
		opts.Auth = auth
	}

	err = a.repo.PushContext(ctx, opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		a.logger.Error("Archive push failed", "remote", a.remoteURL, "error", err)
		return fmt.Errorf("failed to push archive: %w", err)
	}
	a.logger.Info("Archive pushed", "remote", a.remoteURL, "branch", a.branch)
	return nil
}
