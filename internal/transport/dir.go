package transport

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

// Dir serves a local directory through the same contract as FTP.
// Hidden entries and subdirectories are not listed.
type Dir struct {
	root   string
	logger *slog.Logger
}

func OpenDir(root string, logger *slog.Logger) (*Dir, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, common.KindErrorf(common.ErrTransportConnect, "source directory is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, common.KindError(common.ErrTransportConnect, "stat "+root, err)
	}
	if !info.IsDir() {
		return nil, common.KindErrorf(common.ErrTransportConnect, "%s is not a directory", root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, common.KindError(common.ErrTransportConnect, "abs "+root, err)
	}
	logger.Info("using local source directory", "dir", abs)
	return &Dir{root: abs, logger: logger}, nil
}

func (d *Dir) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, common.KindError(common.ErrTransportIO, "list "+d.root, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (d *Dir) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, common.KindError(common.ErrTransportIO, "read "+name, err)
	}
	return data, nil
}

// Put copies localPath into the directory under its base name.
func (d *Dir) Put(ctx context.Context, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(localPath)
	if err != nil {
		return common.KindError(common.ErrTransportIO, "open "+localPath, err)
	}
	defer src.Close()

	name := filepath.Base(localPath)
	dst, err := os.Create(filepath.Join(d.root, name))
	if err != nil {
		return common.KindError(common.ErrTransportIO, "create "+name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return common.KindError(common.ErrTransportIO, "copy "+name, err)
	}
	if err := dst.Close(); err != nil {
		return common.KindError(common.ErrTransportIO, "close "+name, err)
	}
	d.logger.Info("uploaded file", "path", localPath, "remote", name)
	return nil
}

func (d *Dir) Close() error { return nil }

// resolve rejects names that would escape the root.
func (d *Dir) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", common.KindErrorf(common.ErrTransportIO, "invalid file name %q", name)
	}
	return filepath.Join(d.root, name), nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
