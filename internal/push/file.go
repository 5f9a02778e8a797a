package push

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"
)

// FileProvider reads the messaging token from a file maintained by the
// platform messaging layer. The file is re-read on every call so token
// rotation is picked up without restarting.
type FileProvider struct {
	// Path is the token file location.
	Path string
}

// NewFileProvider creates a provider reading from the given path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

// CurrentToken returns the token currently in the file.
func (p *FileProvider) CurrentToken(_ context.Context) (string, error) {
	raw, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", err
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

var _ TokenProvider = (*FileProvider)(nil)
