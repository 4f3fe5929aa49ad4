// Package remote resolves repository references such as owner/repo@ref and
// clones them into a temporary directory for analysis.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrCloneFailed is returned when a repository cannot be cloned.
var ErrCloneFailed = errors.New("clone failed")

var shaPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch, tag, or SHA (empty = default branch)
	CloneDir string // temp directory after clone
}

// Parse detects if a path is a remote reference.
// Returns nil if path exists on filesystem (local path takes precedence).
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	// SSH URLs carry an @ before the host, so only split a ref after it.
	ref := ""
	if idx := strings.LastIndex(path, "@"); idx != -1 && !strings.Contains(path[idx:], ":") {
		ref = path[idx+1:]
		path = path[:idx]
	}
	if strings.HasPrefix(path, "git@") {
		return &Source{URL: path, Ref: ref}, nil
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	}
	return nil, nil
}

// isHostPath reports whether path looks like host.tld/owner/repo.
func isHostPath(path string) bool {
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return false
	}
	host := parts[0]
	return strings.Contains(host, ".") && !strings.HasPrefix(host, ".") && parts[1] != "" && parts[2] != ""
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 {
		return false
	}
	if strings.Count(path, "/") != 1 {
		return false
	}
	// A dot before the slash is a domain or a relative path.
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// IsCommit reports whether the ref looks like a commit SHA.
func (s *Source) IsCommit() bool {
	return shaPattern.MatchString(s.Ref)
}

// Clone clones the repository into a new temporary directory and checks out
// Ref. Server progress is written to progress when it is not nil. Shallow
// clones fetch a single commit and are not used for commit refs.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "carbonsense-remote-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCloneFailed, err)
	}
	s.CloneDir = dir

	opts := &git.CloneOptions{
		URL:      s.URL,
		Progress: progress,
	}
	if shallow && !s.IsCommit() {
		opts.Depth = 1
	}

	var repo *git.Repository
	switch {
	case s.Ref == "" || s.IsCommit():
		repo, err = git.PlainCloneContext(ctx, dir, false, opts)
	default:
		repo, err = cloneRef(ctx, dir, opts, s.Ref)
	}
	if err != nil {
		s.Cleanup()
		return fmt.Errorf("%w: %s: %v", ErrCloneFailed, s.URL, err)
	}

	if s.IsCommit() {
		if err := checkoutCommit(repo, s.Ref); err != nil {
			s.Cleanup()
			return fmt.Errorf("%w: %s: %v", ErrCloneFailed, s.URL, err)
		}
	}
	return nil
}

// cloneRef clones a branch, falling back to a tag of the same name.
func cloneRef(ctx context.Context, dir string, opts *git.CloneOptions, ref string) (*git.Repository, error) {
	opts.SingleBranch = true
	opts.ReferenceName = plumbing.NewBranchReferenceName(ref)
	repo, err := git.PlainCloneContext(ctx, dir, false, opts)
	if err == nil {
		return repo, nil
	}

	if rmErr := os.RemoveAll(dir); rmErr != nil {
		return nil, rmErr
	}
	opts.ReferenceName = plumbing.NewTagReferenceName(ref)
	return git.PlainCloneContext(ctx, dir, false, opts)
}

func checkoutCommit(repo *git.Repository, ref string) error {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	return wt.Checkout(&git.CheckoutOptions{Hash: *hash})
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() {
	if s.CloneDir != "" {
		os.RemoveAll(s.CloneDir)
		s.CloneDir = ""
	}
}
