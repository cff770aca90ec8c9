package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/prudhvinik1/storyline/internal/models"
)

var mediaKinds = map[string]models.ItemKind{
	".jpg":  models.KindImage,
	".jpeg": models.KindImage,
	".png":  models.KindImage,
	".gif":  models.KindImage,
	".webp": models.KindImage,
	".heic": models.KindImage,
	".mp4":  models.KindVideo,
	".m4v":  models.KindVideo,
	".mov":  models.KindVideo,
	".webm": models.KindVideo,
}

// FilePicker selects a local media file. The kind comes from the file
// extension and the file must be readable.
type FilePicker struct {
	Path string

	// Open checks the file can be read. Defaults to os.Open.
	Open func(name string) (io.Closer, error)
}

func NewFilePicker(path string) FilePicker {
	return FilePicker{Path: path}
}

func (p FilePicker) Pick(ctx context.Context) (MediaSelection, error) {
	kind, ok := mediaKinds[strings.ToLower(filepath.Ext(p.Path))]
	if !ok {
		return MediaSelection{}, fmt.Errorf("%w: unsupported media file %q", models.ErrInvalidItem, filepath.Base(p.Path))
	}

	open := p.Open
	if open == nil {
		open = openFile
	}
	f, err := open(p.Path)
	if errors.Is(err, fs.ErrPermission) {
		return MediaSelection{}, fmt.Errorf("%w: %s", ErrPermissionDenied, p.Path)
	}
	if err != nil {
		return MediaSelection{}, fmt.Errorf("failed to open media: %w", err)
	}
	f.Close()

	abs, err := filepath.Abs(p.Path)
	if err != nil {
		return MediaSelection{}, fmt.Errorf("failed to resolve media path: %w", err)
	}
	uri := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return MediaSelection{URI: uri.String(), Kind: kind}, nil
}

func openFile(name string) (io.Closer, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	return f, nil
}
