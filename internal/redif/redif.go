// Package redif downloads ReDIF bibliographic files from a RePEc FTP archive.
package redif

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
)

const (
	DefaultHost      = "ftp.repec.org:21"
	DefaultDir       = "/opt/ReDIF/RePEc/taf/defpea"
	DefaultFile      = "defpea.redif"
	DefaultLocalPath = "data-raw/repec/defpea.redif"

	anonymousUser = "anonymous"
)

// ErrExternalService wraps failures talking to the FTP server.
var ErrExternalService = errors.New("external service error")

// ErrNotFound is returned when the remote directory does not list the file.
var ErrNotFound = errors.New("remote file not found")

// Config locates the remote file and where to store it.
type Config struct {
	Host      string
	Dir       string
	File      string
	LocalPath string
	User      string
	Password  string
	Timeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.File == "" {
		c.File = DefaultFile
	}
	if c.LocalPath == "" {
		c.LocalPath = DefaultLocalPath
	}
	if c.User == "" {
		c.User = anonymousUser
		if c.Password == "" {
			c.Password = anonymousUser
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

// Conn is the subset of an FTP session the fetcher uses.
type Conn interface {
	Login(user, password string) error
	ChangeDir(dir string) error
	NameList(dir string) ([]string, error)
	Retr(name string) (io.ReadCloser, error)
	Quit() error
}

// Dialer opens an FTP session.
type Dialer func(ctx context.Context, addr string, timeout time.Duration) (Conn, error)

// Fetcher downloads one file per call.
type Fetcher struct {
	cfg  Config
	dial Dialer
	log  *slog.Logger
}

// NewFetcher returns a fetcher that dials with jlaffaye/ftp.
func NewFetcher(cfg Config, log *slog.Logger) *Fetcher {
	return NewFetcherWithDialer(cfg, log, DialFTP)
}

// NewFetcherWithDialer returns a fetcher using dial to open sessions.
func NewFetcherWithDialer(cfg Config, log *slog.Logger, dial Dialer) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{cfg: cfg.withDefaults(), dial: dial, log: log}
}

// Fetch logs in, checks the file is listed, and copies it to the local path.
// It returns a confirmation naming the remote and local paths.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	cfg := f.cfg
	remote := path.Join(cfg.Dir, cfg.File)
	log := f.log.With("host", cfg.Host, "remote", remote)

	conn, err := f.dial(ctx, cfg.Host, cfg.Timeout)
	if err != nil {
		return "", fmt.Errorf("%w: dial %s: %v", ErrExternalService, cfg.Host, err)
	}
	defer func() {
		if err := conn.Quit(); err != nil {
			log.Warn("ftp quit failed", "err", err)
		}
	}()

	if err := conn.Login(cfg.User, cfg.Password); err != nil {
		return "", fmt.Errorf("%w: login: %v", ErrExternalService, err)
	}
	if err := conn.ChangeDir(cfg.Dir); err != nil {
		return "", fmt.Errorf("%w: cwd %s: %v", ErrExternalService, cfg.Dir, err)
	}
	names, err := conn.NameList(".")
	if err != nil {
		return "", fmt.Errorf("%w: list %s: %v", ErrExternalService, cfg.Dir, err)
	}
	log.Debug("listed remote directory", "entries", len(names))
	if !contains(names, cfg.File) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, remote)
	}

	n, err := f.download(conn, cfg.File, cfg.LocalPath)
	if err != nil {
		return "", err
	}
	log.Info("downloaded redif file", "local", cfg.LocalPath, "bytes", n)
	return fmt.Sprintf("downloaded '%s' to '%s'", remote, cfg.LocalPath), nil
}

func (f *Fetcher) download(conn Conn, name, local string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return 0, err
	}
	r, err := conn.Retr(name)
	if err != nil {
		return 0, fmt.Errorf("%w: retr %s: %v", ErrExternalService, name, err)
	}
	defer r.Close()

	tmp, err := os.CreateTemp(filepath.Dir(local), filepath.Base(local)+".*.part")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("%w: transfer %s: %v", ErrExternalService, name, err)
	}
	if err := os.Rename(tmp.Name(), local); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

func contains(names []string, file string) bool {
	for _, n := range names {
		if path.Base(n) == file {
			return true
		}
	}
	return false
}

// DialFTP opens a passive-mode session with jlaffaye/ftp.
func DialFTP(ctx context.Context, addr string, timeout time.Duration) (Conn, error) {
	c, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(timeout))
	if err != nil {
		return nil, err
	}
	return serverConn{c}, nil
}

type serverConn struct {
	*ftp.ServerConn
}

func (s serverConn) Retr(name string) (io.ReadCloser, error) {
	return s.ServerConn.Retr(name)
}
