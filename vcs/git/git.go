package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/LegacyCodeHQ/testscope/vcs"
)

// GetRepositoryRoot returns the absolute path to the repository root
func GetRepositoryRoot(ctx context.Context, repoPath string) (string, error) {
	stdout, err := runGitCommand(ctx, repoPath, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// ValidateCommit validates that a commit reference resolves in the given repository.
func ValidateCommit(ctx context.Context, repoPath, commitID string) error {
	if err := validateGitRef(commitID); err != nil {
		return err
	}

	if _, err := runGitCommand(ctx, repoPath, "rev-parse", "--verify", commitID+"^{commit}"); err != nil {
		return fmt.Errorf("invalid commit reference '%s': %w", commitID, err)
	}

	return nil
}

// GetFileContentFromCommit reads the content of a file at a specific commit
// using 'git show commit:path'. The filePath should be relative to the repository root.
func GetFileContentFromCommit(ctx context.Context, repoPath, commitID, filePath string) ([]byte, error) {
	if err := validateGitRef(commitID); err != nil {
		return nil, err
	}
	if err := validateGitRelPath(filePath); err != nil {
		return nil, err
	}

	ref := fmt.Sprintf("%s:%s", commitID, filepath.ToSlash(filePath))
	return runGitCommand(ctx, repoPath, "show", ref)
}

// CommitContentReader returns a ContentReader that resolves absolute paths
// inside repoRoot against the tree of commitID.
func CommitContentReader(repoRoot, commitID string) vcs.ContentReader {
	return func(ctx context.Context, filePath string) ([]byte, error) {
		relPath := filePath
		if filepath.IsAbs(filePath) {
			rel, err := filepath.Rel(repoRoot, filePath)
			if err != nil {
				return nil, fmt.Errorf("failed to relativize %s: %w", filePath, err)
			}
			relPath = rel
		}
		return GetFileContentFromCommit(ctx, repoRoot, commitID, relPath)
	}
}

func validateGitRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("git reference cannot be empty")
	}
	if strings.HasPrefix(ref, "-") {
		return fmt.Errorf("git reference cannot start with '-': %q", ref)
	}
	if strings.ContainsAny(ref, "\x00\n\r\t ") {
		return fmt.Errorf("git reference contains whitespace or NUL: %q", ref)
	}
	return nil
}

func validateGitRelPath(path string) error {
	if path == "" {
		return fmt.Errorf("git path cannot be empty")
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("git path must be relative: %q", path)
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("git path contains NUL: %q", path)
	}
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("git path escapes repository: %q", path)
	}
	return nil
}
