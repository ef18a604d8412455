package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/renameio"

	"github.com/tricount-export/tricount-export/internal/model"
)

// WriteFileAtomic renders into a temporary file next to path and renames
// it into place only if render succeeds.
func WriteFileAtomic(path string, render func(io.Writer) error) error {
	pf, err := renameio.TempFile(filepath.Dir(path), path)
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer pf.Cleanup()

	if err := render(pf); err != nil {
		return err
	}
	if err := pf.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// WriteLedger renders ledger with rd into path atomically.
func WriteLedger(path string, rd Renderer, ledger *model.Ledger) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		return rd.Render(w, ledger)
	})
}

// WriteRawDump writes an already indented JSON snapshot atomically.
func WriteRawDump(path string, indented []byte) error {
	if err := renameio.WriteFile(path, indented, 0o644); err != nil {
		return fmt.Errorf("writing raw dump %s: %w", path, err)
	}
	return nil
}

// RawDumpName returns the file name of the raw response snapshot.
func RawDumpName(ledgerKey string) string {
	return "response_data_" + sanitize(ledgerKey) + ".json"
}

// FileName builds "<prefix> <title><ext>" with path separators replaced.
func FileName(prefix, title, ext string) string {
	name := strings.TrimSpace(strings.TrimSpace(prefix) + " " + strings.TrimSpace(title))
	if name == "" {
		name = "export"
	}
	return sanitize(name) + ext
}

func sanitize(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "\x00", "").Replace(name)
}
