package media

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"chatcore/internal/domain"
)

// File is one uploaded part awaiting storage.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// Resolver uploads message attachments and decides their media type.
type Resolver struct {
	store Store
	log   *zap.Logger
}

func NewResolver(store Store, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: store, log: log}
}

// Resolve uploads files and returns one unsaved MessageMedia per stored file.
// When any file is a video only the first video is kept; otherwise every file
// is stored as an image. Nothing is returned unless every upload succeeded.
func (r *Resolver) Resolve(ctx context.Context, files []File) ([]*domain.MessageMedia, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one media file is required: %w", domain.ErrInvalidArgument)
	}

	for i := range files {
		if files[i].Content == nil {
			return nil, fmt.Errorf("media file %q has no content: %w", files[i].Name, domain.ErrInvalidArgument)
		}
		files[i] = withContentType(files[i])
	}

	selected := files
	kind := domain.MediaTypeImage
	for _, f := range files {
		if isVideo(f.ContentType) {
			selected = []File{f}
			kind = domain.MediaTypeVideo
			break
		}
	}

	out := make([]*domain.MessageMedia, 0, len(selected))
	for _, f := range selected {
		url, err := r.store.Upload(ctx, f.Content, f.Name, f.ContentType)
		if err != nil {
			r.discard(ctx, out)
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrUploadFailed, f.Name, err)
		}
		out = append(out, &domain.MessageMedia{URL: url, Type: kind})
	}
	return out, nil
}

// Discard removes already stored media, when the store supports it.
func (r *Resolver) Discard(ctx context.Context, media []*domain.MessageMedia) {
	r.discard(ctx, media)
}

func (r *Resolver) discard(ctx context.Context, media []*domain.MessageMedia) {
	rm, ok := r.store.(Remover)
	if !ok {
		return
	}
	for _, m := range media {
		if err := rm.Remove(ctx, m.URL); err != nil {
			r.log.Warn("media_discard_failed", zap.String("url", m.URL), zap.Error(err))
		}
	}
}

func isVideo(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "video")
}

// withContentType fills a missing content type from the file extension, then
// from the first 512 bytes of content.
func withContentType(f File) File {
	ct := strings.TrimSpace(f.ContentType)
	if ct != "" && ct != "application/octet-stream" {
		return f
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name))); byExt != "" {
		f.ContentType = byExt
		return f
	}
	br := bufio.NewReaderSize(f.Content, 512)
	head, _ := br.Peek(512)
	f.ContentType = http.DetectContentType(head)
	f.Content = br
	return f
}
