package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

type fsLibrary struct {
	log  *zap.Logger
	root string
}

func newFSLibrary(log *zap.Logger, root string) (*fsLibrary, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("library root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library root %s is not a directory", root)
	}
	log.Info("using filesystem library", zap.String("root", root))
	return &fsLibrary{log: log, root: root}, nil
}

func (l *fsLibrary) Open(ctx context.Context, p string, offset int64) (io.ReadCloser, int64, error) {
	// Daemon paths are slash-separated and relative; rooting them before
	// cleaning keeps them inside the library.
	clean := path.Clean("/" + p)
	full := filepath.Join(l.root, filepath.FromSlash(clean))

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, 0, err
		}
	}
	return f, info.Size(), nil
}
