package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadPrefix is the public path local uploads are served under.
const UploadPrefix = "/api/uploads/"

var ErrTooLarge = errors.New("file exceeds upload limit")

// LocalStore keeps uploads in a directory on disk under random names.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalStore(dir, publicBaseURL string, maxBytes int64) *LocalStore {
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(publicBaseURL, "/"),
		maxBytes: maxBytes,
	}
}

func (s *LocalStore) Upload(ctx context.Context, r io.Reader, name, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	filename := uuid.NewString() + extensionFor(name, contentType)
	dest := filepath.Join(s.dir, filename)

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = fmt.Errorf("%s: %w (%d bytes)", name, ErrTooLarge, s.maxBytes)
	}
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write file: %w", err)
	}
	return s.baseURL + UploadPrefix + filename, nil
}

func (s *LocalStore) Remove(_ context.Context, url string) error {
	name, ok := strings.CutPrefix(url, s.baseURL+UploadPrefix)
	if !ok {
		return fmt.Errorf("not a local upload: %s", url)
	}
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Path maps a served filename back to disk, rejecting anything that is not a bare name.
func (s *LocalStore) Path(filename string) (string, error) {
	if filename == "" || filename == "." || filepath.Base(filename) != filename {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	return filepath.Join(s.dir, filename), nil
}

func extensionFor(name, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && len(ext) <= 8 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
