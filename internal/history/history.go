// Package history keeps a git log of the database directory.
//
// A Recorder is registered as a storage.Observer: every successful mutation
// commits the rewritten table file. The repository is handled with go-git so no
// git binary is needed.
package history

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/storage"
)

// Commit author.
const (
	AuthorName  = "pcrm"
	AuthorEmail = "pcrm@localhost"
)

// Recorder commits table files to a git repository.
type Recorder struct {
	dir  string
	repo *gogit.Repository
	mu   sync.Mutex
	now  func() time.Time
}

// Commit is one entry of the history.
type Commit struct {
	Hash    string
	Message string
	When    time.Time
}

// Open opens the git repository in dir, initializing it when needed.
func Open(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, crmerrors.FileError("failed to create history directory", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		if repo, err = gogit.PlainInit(dir, false); err != nil {
			return nil, crmerrors.FileError("failed to initialize git repo in "+dir, err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = AuthorName
		cfg.User.Email = AuthorEmail
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
		slog.Info("history initialized", "dir", dir)
	}
	return &Recorder{dir: dir, repo: repo, now: time.Now}, nil
}

// Dir returns the repository root.
func (r *Recorder) Dir() string {
	return r.dir
}

// RecordsChanged commits the table file at path. It implements storage.Observer.
func (r *Recorder) RecordsChanged(table, path string, op storage.Op, ids []int) error {
	rel, err := filepath.Rel(r.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s is outside of %s", path, r.dir)
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return r.commit(fmt.Sprintf("%s %s %s", op, table, strings.Join(parts, ",")), filepath.ToSlash(rel))
}

func (r *Recorder) commit(msg string, files ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, f := range files {
		if _, err := w.Add(f); err != nil {
			return fmt.Errorf("failed to stage %s: %w", f, err)
		}
	}
	status, err := w.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	if !staged(status) {
		return nil
	}
	sig := &object.Signature{Name: AuthorName, Email: AuthorEmail, When: r.now()}
	h, err := w.Commit(msg, &gogit.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	slog.Debug("history committed", "hash", h.String(), "msg", msg)
	return nil
}

// staged reports whether status holds changes to commit. Untracked files are
// ignored.
func staged(status gogit.Status) bool {
	for _, fs := range status {
		if fs.Staging != gogit.Unmodified && fs.Staging != gogit.Untracked {
			return true
		}
	}
	return false
}

// Log returns up to n commits, most recent first. n <= 0 returns them all.
func (r *Recorder) Log(n int) ([]Commit, error) {
	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		if stderrors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, crmerrors.ReadError("failed to read history", err)
	}
	defer iter.Close()

	var out []Commit
	for n <= 0 || len(out) < n {
		c, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, crmerrors.ReadError("failed to read history", err)
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		out = append(out, Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			When:    c.Author.When,
		})
	}
	return out, nil
}
