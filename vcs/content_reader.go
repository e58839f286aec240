package vcs

import (
	"context"
	"os"
)

// ContentReader reads the content of a file. Implementations decide where
// the content comes from: the working tree, a commit, and so on.
type ContentReader func(ctx context.Context, filePath string) ([]byte, error)

// FilesystemContentReader reads files from the working tree.
func FilesystemContentReader() ContentReader {
	return func(_ context.Context, filePath string) ([]byte, error) {
		return os.ReadFile(filePath)
	}
}
