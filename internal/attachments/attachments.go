// Package attachments downloads receipt files referenced by transactions.
package attachments

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/tricount-export/tricount-export/internal/model"
)

// DefaultWorkers is the download concurrency when Config.Workers is unset.
const DefaultWorkers = 4

const maxExtLen = 6

// Config holds configuration for a Downloader.
type Config struct {
	// Dir receives the downloaded files. It is created if missing.
	Dir string
	// Workers bounds concurrent downloads. Defaults to DefaultWorkers.
	Workers int
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger receives progress logs. If nil, the logrus standard logger is used.
	Logger logrus.FieldLogger
}

// Downloader fetches attachment URLs with a bounded worker pool.
type Downloader struct {
	dir        string
	workers    int
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewDownloader creates a Downloader, filling unset fields with defaults.
func NewDownloader(cfg Config) *Downloader {
	d := &Downloader{
		dir:        cfg.Dir,
		workers:    cfg.Workers,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}
	if d.workers <= 0 {
		d.workers = DefaultWorkers
	}
	if d.httpClient == nil {
		d.httpClient = http.DefaultClient
	}
	if d.logger == nil {
		d.logger = logrus.StandardLogger()
	}
	return d
}

type job struct {
	entry int
	url   string
	name  string
}

// FileName returns the local name of attachment index of entry, e.g.
// "003-01.jpg". The extension comes from the URL path when it looks like one.
func FileName(entry, index int, rawURL string) string {
	ext := ""
	if u, err := url.Parse(rawURL); err == nil {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	if len(ext) > maxExtLen {
		ext = ""
	}
	return fmt.Sprintf("%03d-%02d%s", entry+1, index+1, ext)
}

// Download fetches every attachment of txns into the download directory and
// sets each transaction's FileNames in attachment order. Names depend only
// on positions, never on completion order. The first failure cancels the
// remaining downloads and FileNames are left untouched.
func (d *Downloader) Download(ctx context.Context, txns []model.Transaction) error {
	names := make([][]string, len(txns))
	var jobs []job
	for i, txn := range txns {
		for j, u := range txn.Attachments {
			name := FileName(i, j, u)
			names[i] = append(names[i], name)
			jobs = append(jobs, job{entry: i, url: u, name: name})
		}
	}
	if len(jobs) == 0 {
		return nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating attachment dir: %w", err)
	}

	d.logger.WithFields(logrus.Fields{
		"files":   len(jobs),
		"workers": d.workers,
		"dir":     d.dir,
	}).Info("downloading attachments")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, jb := range jobs {
		jb := jb
		g.Go(func() error {
			return d.fetch(ctx, jb)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range txns {
		txns[i].FileNames = names[i]
	}
	return nil
}

func (d *Downloader) fetch(ctx context.Context, jb job) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, jb.url, nil)
	if err != nil {
		return fmt.Errorf("entry %d: attachment %s: %w", jb.entry, jb.url, err)
	}
	resp, err := d.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("entry %d: downloading %s: %w", jb.entry, jb.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("entry %d: downloading %s: unexpected status %d", jb.entry, jb.url, resp.StatusCode)
	}

	dst := filepath.Join(d.dir, jb.name)
	pf, err := renameio.TempFile(d.dir, dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	defer pf.Cleanup()

	n, err := io.Copy(pf, resp.Body)
	if err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	if err := pf.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing %s: %w", dst, err)
	}

	d.logger.WithFields(logrus.Fields{"file": jb.name, "bytes": n}).Debug("attachment saved")
	return nil
}
