package transport

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlaffaye/ftp"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
)

const defaultFTPPort = "21"

// FTP is a single logged-in control connection to the remote drop box.
type FTP struct {
	conn   *ftp.ServerConn
	dir    string
	logger *slog.Logger
}

// DialFTP connects, logs in and changes into cfg.Dir when set.
func DialFTP(ctx context.Context, cfg common.FTPConfig, logger *slog.Logger) (*FTP, error) {
	if logger == nil {
		logger = slog.Default()
	}
	addr := ftpAddr(cfg.Host)
	logger.Info("connecting to ftp server", "addr", addr)

	opts := []ftp.DialOption{ftp.DialWithContext(ctx)}
	if cfg.Timeout > 0 {
		opts = append(opts, ftp.DialWithTimeout(cfg.Timeout))
	}
	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		logger.Error("ftp dial failed", "addr", addr, "error", err)
		return nil, common.KindError(common.ErrTransportConnect, "dial "+addr, err)
	}
	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		_ = conn.Quit()
		logger.Error("ftp login failed", "addr", addr, "user", cfg.User, "error", err)
		return nil, common.KindError(common.ErrTransportConnect, "login "+addr, err)
	}
	if cfg.Dir != "" {
		if err := conn.ChangeDir(cfg.Dir); err != nil {
			_ = conn.Quit()
			logger.Error("ftp cwd failed", "dir", cfg.Dir, "error", err)
			return nil, common.KindError(common.ErrTransportConnect, "cwd "+cfg.Dir, err)
		}
	}

	logger.Info("connected to ftp server", "addr", addr, "dir", cfg.Dir)
	return &FTP{conn: conn, dir: cfg.Dir, logger: logger}, nil
}

// ftpAddr appends the default port when host has none.
func ftpAddr(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), defaultFTPPort)
}

// List returns the NLST of the working directory as bare names.
func (f *FTP) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := f.conn.NameList("")
	if err != nil {
		f.logger.Error("ftp list failed", "dir", f.dir, "error", err)
		return nil, common.KindError(common.ErrTransportIO, "list", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e == "" {
			continue
		}
		names = append(names, listingName(f.dir, e))
	}
	f.logger.Debug("ftp list", "count", len(names))
	return names, nil
}

// listingName undoes the working directory prefix some servers echo back in
// NLST. Any other path is the server's name for the entry and is kept as is.
func listingName(dir, entry string) string {
	entry = strings.TrimPrefix(entry, "./")
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return entry
	}
	for _, prefix := range []string{"/" + dir + "/", dir + "/"} {
		if rest, ok := strings.CutPrefix(entry, prefix); ok && rest != "" {
			return rest
		}
	}
	return entry
}

// Fetch retrieves the full contents of name.
func (f *FTP) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := f.conn.Retr(name)
	if err != nil {
		return nil, common.KindError(common.ErrTransportIO, "retr "+name, err)
	}
	data, err := io.ReadAll(resp)
	closeErr := resp.Close()
	if err != nil {
		return nil, common.KindError(common.ErrTransportIO, "read "+name, err)
	}
	if closeErr != nil {
		return nil, common.KindError(common.ErrTransportIO, "retr "+name, closeErr)
	}
	return data, nil
}

// Put stores localPath in the working directory under its base name.
func (f *FTP) Put(ctx context.Context, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := os.Open(localPath)
	if err != nil {
		return common.KindError(common.ErrTransportIO, "open "+localPath, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			f.logger.Warn("close upload source failed", "path", localPath, "error", err)
		}
	}()

	name := filepath.Base(localPath)
	if err := f.conn.Stor(name, file); err != nil {
		return common.KindError(common.ErrTransportIO, "stor "+name, err)
	}
	f.logger.Info("uploaded file", "path", localPath, "remote", name)
	return nil
}

func (f *FTP) Close() error {
	f.logger.Info("closing ftp connection")
	return f.conn.Quit()
}
