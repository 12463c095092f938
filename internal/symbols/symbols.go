// Package symbols provisions the debug symbols of the compositor modules
// from a Microsoft-style symbol server. Symbols are keyed by the CodeView
// record of each module on disk, stored as <dir>/<pdb>/<key>/<pdb>, and
// fetched all-or-nothing.
package symbols

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dwmblurglass/controller/internal/platform"
)

const (
	// userAgent is the agent string symbol servers expect from symchk/dbghelp.
	userAgent = "Microsoft-Symbol-Server/10.0.0.0"

	// baseRetryDelay is the base delay for exponential backoff between retries.
	baseRetryDelay = 2 * time.Second
)

// Config holds symbol provisioning settings.
type Config struct {
	ServerURL string
	Dir       string
	Modules   []string
	Timeout   time.Duration
	Retries   int
}

// Provisioner queries and fetches compositor symbols.
type Provisioner struct {
	cfg        Config
	platform   platform.Platform
	logger     *zap.Logger
	httpClient *http.Client

	identify   func(path string) (Ident, error)
	rename     func(oldpath, newpath string) error
	retryDelay time.Duration
	now        func() time.Time
}

// target is one symbol file to provision.
type target struct {
	module string
	ident  Ident
	path   string
	url    string
}

// New creates a Provisioner.
func New(cfg Config, plat platform.Platform, logger *zap.Logger) *Provisioner {
	return &Provisioner{
		cfg:      cfg,
		platform: plat,
		logger:   logger.Named("symbols"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		identify:   readIdent,
		rename:     os.Rename,
		retryDelay: baseRetryDelay,
		now:        time.Now,
	}
}

// Available reports whether every module's symbols are present and the
// store was provisioned for the running OS build.
func (p *Provisioner) Available(ctx context.Context) (bool, error) {
	targets, err := p.targets()
	if err != nil {
		return false, err
	}
	for _, t := range targets {
		if !present(t.path) {
			p.logger.Debug("Symbol file missing", zap.String("module", t.module), zap.String("path", t.path))
			return false, nil
		}
	}

	build, err := p.platform.OSBuild(ctx)
	if err != nil {
		p.logger.Warn("Cannot determine OS build, trusting symbol files", zap.Error(err))
		return true, nil
	}
	m, err := readManifest(p.cfg.Dir)
	if err != nil {
		return false, err
	}
	if m == nil || m.OSBuild != build {
		p.logger.Debug("Symbol store provisioned for another OS build", zap.String("build", build))
		return false, nil
	}
	return true, nil
}

// Fetch downloads every missing symbol file. Files are downloaded to
// temporary names first and moved into place only when all downloads
// succeeded. If placing fails, files placed by this call are removed again.
func (p *Provisioner) Fetch(ctx context.Context) error {
	targets, err := p.targets()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.cfg.Dir, 0750); err != nil {
		return fmt.Errorf("creating symbol directory: %w", err)
	}

	staged := make(map[string]string) // final path -> temp path
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, t := range targets {
		if present(t.path) {
			continue
		}
		tmp := filepath.Join(p.cfg.Dir, fmt.Sprintf(".%s-%d.part", t.ident.PDB, p.now().UnixNano()))
		p.logger.Info("Downloading symbols",
			zap.String("module", t.module),
			zap.String("url", t.url))
		if err := p.downloadWithRetry(ctx, t.url, tmp); err != nil {
			os.Remove(tmp)
			cleanup()
			return fmt.Errorf("downloading %s: %w", t.ident.PDB, err)
		}
		staged[t.path] = tmp
	}

	var placed []string
	rollback := func() {
		cleanup()
		for _, final := range placed {
			os.Remove(final)
		}
	}
	for final, tmp := range staged {
		if err := os.MkdirAll(filepath.Dir(final), 0750); err != nil {
			rollback()
			return fmt.Errorf("creating symbol directory: %w", err)
		}
		if err := p.rename(tmp, final); err != nil {
			rollback()
			return fmt.Errorf("placing %s: %w", filepath.Base(final), err)
		}
		delete(staged, final)
		placed = append(placed, final)
	}

	m := &manifest{FetchedAt: p.now().UTC()}
	if build, err := p.platform.OSBuild(ctx); err == nil {
		m.OSBuild = build
	} else {
		p.logger.Warn("Cannot determine OS build for manifest", zap.Error(err))
	}
	for _, t := range targets {
		m.Symbols = append(m.Symbols, manifestEntry{Module: t.module, PDB: t.ident.PDB, Key: t.ident.Key()})
	}
	if err := writeManifest(p.cfg.Dir, m); err != nil {
		return err
	}

	p.logger.Info("Symbols provisioned", zap.Int("modules", len(targets)), zap.String("build", m.OSBuild))
	return nil
}

// targets resolves the symbol file of every configured module.
func (p *Provisioner) targets() ([]target, error) {
	sysDir, err := p.platform.SystemDir()
	if err != nil {
		return nil, err
	}
	server := strings.TrimRight(p.cfg.ServerURL, "/")

	targets := make([]target, 0, len(p.cfg.Modules))
	for _, module := range p.cfg.Modules {
		ident, err := p.identify(filepath.Join(sysDir, module))
		if err != nil {
			return nil, fmt.Errorf("identifying %s: %w", module, err)
		}
		key := ident.Key()
		targets = append(targets, target{
			module: module,
			ident:  ident,
			path:   filepath.Join(p.cfg.Dir, ident.PDB, key, ident.PDB),
			url:    fmt.Sprintf("%s/%s/%s/%s", server, ident.PDB, key, ident.PDB),
		})
	}
	return targets, nil
}

func (p *Provisioner) downloadWithRetry(ctx context.Context, url, dest string) error {
	var err error
	for attempt := 0; attempt <= p.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := p.retryDelay << (attempt - 1)
			p.logger.Warn("Retrying symbol download",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = p.download(ctx, url, dest)
		if err == nil {
			return nil
		}
		var nf *notFoundError
		if errors.As(err, &nf) {
			return err
		}
		p.logger.Warn("Symbol download failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}

func (p *Provisioner) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &notFoundError{url: url}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("download failed: empty body")
	}
	return nil
}

// present reports whether path is a non-empty regular file.
func present(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// notFoundError indicates the server has no symbols for the requested key.
type notFoundError struct {
	url string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("symbols not found on server: %s", e.url)
}
