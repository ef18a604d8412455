package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tricount-export/tricount-export/internal/attachments"
	"github.com/tricount-export/tricount-export/internal/config"
	"github.com/tricount-export/tricount-export/internal/export"
	"github.com/tricount-export/tricount-export/internal/registry"
	"github.com/tricount-export/tricount-export/internal/tricount"
)

var errMissingKey = errors.New("a ledger key or tricount.com link is required")

var (
	ledgerURLPattern = regexp.MustCompile(`https?://(?:www\.)?tricount\.com/([a-zA-Z0-9]+)`)
	ledgerKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

// exportOptions holds the root command flags.
type exportOptions struct {
	configPath  string
	raw         bool
	format      string
	outputDir   string
	attachments bool
	verbose     bool
	license     bool

	// changed reports whether a flag was set on the command line.
	changed func(name string) bool
}

// ParseLedgerKey returns the ledger key from a bare key or from text
// containing a tricount.com link.
func ParseLedgerKey(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if m := ledgerURLPattern.FindStringSubmatch(arg); m != nil {
		return m[1], nil
	}
	if ledgerKeyPattern.MatchString(arg) {
		return arg, nil
	}
	return "", fmt.Errorf("invalid ledger key %q", arg)
}

func runExport(ctx context.Context, stdout, stderr io.Writer, arg string, opts exportOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg.Log.Level)
	if err != nil {
		return err
	}

	key, err := ParseLedgerKey(arg)
	if err != nil {
		return err
	}

	delim, err := cfg.Export.DelimiterRune()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	renderOpts := export.Options{Delimiter: delim}
	if err := renderOpts.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	renderers := export.DefaultRegistry(renderOpts)
	renderer := renderers.Get(cfg.Export.Format)
	if renderer == nil {
		return fmt.Errorf("unknown format %q (available: %s)", cfg.Export.Format, strings.Join(renderers.Formats(), ", "))
	}

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	client, err := tricount.NewClient(tricount.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		HTTPClient:        httpClient,
		Logger:            logger,
		UserAgent:         cfg.API.UserAgent,
		RequestID:         cfg.API.RequestID,
		DeviceDescription: cfg.API.DeviceDescription,
	})
	if err != nil {
		return err
	}

	session := client.NewSession()
	if err := session.Authenticate(ctx); err != nil {
		return err
	}
	doc, err := session.FetchRegistry(ctx, key)
	if err != nil {
		return err
	}

	if opts.raw {
		indented, err := doc.Indent()
		if err != nil {
			return fmt.Errorf("formatting raw response: %w", err)
		}
		rawPath := filepath.Join(cfg.Export.OutputDir, export.RawDumpName(key))
		if err := export.WriteRawDump(rawPath, indented); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Raw response has been saved to %s\n", rawPath)
	}

	ledger, err := registry.Parse(doc)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"title":        ledger.Title,
		"members":      len(ledger.Members),
		"transactions": len(ledger.Transactions),
	}).Info("parsed registry")

	if cfg.Attachments.Download {
		dir := cfg.Attachments.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Export.OutputDir, dir)
		}
		downloader := attachments.NewDownloader(attachments.Config{
			Dir:        dir,
			Workers:    cfg.Attachments.Workers,
			HTTPClient: httpClient,
			Logger:     logger,
		})
		if err := downloader.Download(ctx, ledger.Transactions); err != nil {
			return fmt.Errorf("downloading attachments: %w", err)
		}
	}

	path := filepath.Join(cfg.Export.OutputDir, export.FileName(cfg.Export.FilePrefix, ledger.Title, renderer.Extension()))
	if err := export.WriteLedger(path, renderer, ledger); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Fprintf(stdout, "Transactions have been saved to %s\n", path)
	return nil
}

// loadConfig reads the config file (or defaults) and applies flag overrides.
func loadConfig(opts exportOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := opts.changed
	if changed == nil {
		changed = func(string) bool { return false }
	}
	if changed("format") {
		cfg.Export.Format = opts.format
	}
	if changed("output-dir") {
		cfg.Export.OutputDir = opts.outputDir
	}
	if changed("attachments") {
		cfg.Attachments.Download = opts.attachments
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func newLogger(out io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger, nil
}
