// Package gitsync shells out to git for the repository the router
// mirrors its exports into. It is a thin passthrough: conflicts are
// surfaced, never auto-resolved.
package gitsync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

// Status summarizes the working tree.
type Status struct {
	Branch    string   `json:"branch"`
	Clean     bool     `json:"clean"`
	Ahead     int      `json:"ahead"`
	Behind    int      `json:"behind"`
	Changes   []string `json:"changes,omitempty"`
	Upstream  string   `json:"upstream,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`
}

// SyncResult reports the outcome of a fetch/pull/push.
type SyncResult struct {
	Action string `json:"action"`
	Output string `json:"output,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// Service runs git commands against a single repository.
type Service struct {
	repoPath string
	log      *zap.Logger
}

// New validates that repoPath is a git checkout and returns a service
// bound to it.
func New(repoPath string, log *zap.Logger) (*Service, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if repoPath == "" {
		return nil, fmt.Errorf("git repo path is empty")
	}
	info, err := os.Stat(filepath.Join(repoPath, ".git"))
	if err != nil {
		return nil, fmt.Errorf("not a git repository: %s", repoPath)
	}
	if !info.IsDir() {
		// worktrees keep a .git file; git handles those fine
		data, err := os.ReadFile(filepath.Join(repoPath, ".git"))
		if err != nil || !strings.HasPrefix(string(data), "gitdir:") {
			return nil, fmt.Errorf("not a git repository: %s", repoPath)
		}
	}
	return &Service{repoPath: repoPath, log: log}, nil
}

// RepoPath returns the repository this service operates on.
func (s *Service) RepoPath() string { return s.repoPath }

func (s *Service) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.String(), fmt.Errorf("git %s: %s", args[0], msg)
	}
	return stdout.String(), nil
}

// Status reports branch, cleanliness, divergence from upstream, and
// any merge conflicts.
func (s *Service) Status(ctx context.Context) (Status, error) {
	branch, err := s.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return Status{}, err
	}
	st := Status{Branch: strings.TrimSpace(branch)}

	porcelain, err := s.run(ctx, "status", "--porcelain")
	if err != nil {
		return Status{}, err
	}
	for _, line := range strings.Split(strings.TrimRight(porcelain, "\n"), "\n") {
		if line != "" {
			st.Changes = append(st.Changes, line)
		}
	}
	st.Clean = len(st.Changes) == 0

	if upstream, err := s.run(ctx, "rev-parse", "--abbrev-ref", "@{upstream}"); err == nil {
		st.Upstream = strings.TrimSpace(upstream)
		if counts, err := s.run(ctx, "rev-list", "--left-right", "--count", "@{upstream}...HEAD"); err == nil {
			fields := strings.Fields(counts)
			if len(fields) == 2 {
				st.Behind, _ = strconv.Atoi(fields[0])
				st.Ahead, _ = strconv.Atoi(fields[1])
			}
		}
	}

	st.Conflicts, _ = s.ConflictFiles(ctx)
	return st, nil
}

// Fetch updates remote tracking refs.
func (s *Service) Fetch(ctx context.Context) (SyncResult, error) {
	out, err := s.run(ctx, "fetch", "--prune")
	if err != nil {
		return SyncResult{}, err
	}
	s.log.Info("git fetch completed", zap.String("repo", s.repoPath))
	return SyncResult{Action: "fetch", Output: strings.TrimSpace(out)}, nil
}

// PullRebase rebases the current branch onto its upstream. On
// conflict the error carries a hint and the conflicting files are
// left for the operator to resolve.
func (s *Service) PullRebase(ctx context.Context) (SyncResult, error) {
	if _, err := s.run(ctx, "rev-parse", "--abbrev-ref", "@{upstream}"); err != nil {
		return SyncResult{}, fmt.Errorf("no upstream configured for current branch")
	}

	out, err := s.run(ctx, "pull", "--rebase")
	if err != nil {
		conflicts, _ := s.ConflictFiles(ctx)
		if len(conflicts) > 0 {
			return SyncResult{
				Action: "pull",
				Hint:   fmt.Sprintf("rebase stopped on %d conflicting file(s); resolve and run `git rebase --continue`", len(conflicts)),
			}, fmt.Errorf("pull with conflicts: %w", err)
		}
		return SyncResult{}, err
	}
	s.log.Info("git pull completed", zap.String("repo", s.repoPath))
	return SyncResult{Action: "pull", Output: strings.TrimSpace(out)}, nil
}

// Push publishes the current branch.
func (s *Service) Push(ctx context.Context) (SyncResult, error) {
	out, err := s.run(ctx, "push")
	if err != nil {
		return SyncResult{}, err
	}
	s.log.Info("git push completed", zap.String("repo", s.repoPath))
	return SyncResult{Action: "push", Output: strings.TrimSpace(out)}, nil
}

// ConflictFiles lists paths with unresolved merge conflicts.
func (s *Service) ConflictFiles(ctx context.Context) ([]string, error) {
	out, err := s.run(ctx, "diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
