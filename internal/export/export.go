// Package export renders a normalized ledger into tabular formats.
//
// Renderers are stateless: the same ledger always produces the same bytes.
// Use WriteFileAtomic to put the output on disk so that a failed render
// never leaves a partial file behind.
package export

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/tricount-export/tricount-export/internal/model"
)

// Renderer writes a ledger in one output format.
type Renderer interface {
	Render(w io.Writer, ledger *model.Ledger) error
	// Format is the name used to select the renderer.
	Format() string
	// Extension is the output file extension, including the dot.
	Extension() string
}

// Options tunes the built-in renderers.
type Options struct {
	// Delimiter overrides the column separator of delimited formats when non-zero.
	Delimiter rune
}

// Validate checks that the options can be used by a csv.Writer.
func (o Options) Validate() error {
	switch o.Delimiter {
	case 0:
		return nil
	case '"', '\r', '\n', 0xFFFD:
		return fmt.Errorf("invalid delimiter %q", o.Delimiter)
	}
	return nil
}

// Registry holds renderers by format name.
type Registry struct {
	renderers map[string]Renderer
}

// NewRegistry creates an empty renderer registry.
func NewRegistry() *Registry {
	return &Registry{renderers: make(map[string]Renderer)}
}

// Register adds a renderer. Panics on duplicate format.
func (r *Registry) Register(rd Renderer) {
	key := strings.ToLower(rd.Format())
	if _, ok := r.renderers[key]; ok {
		panic("duplicate export format: " + key)
	}
	r.renderers[key] = rd
}

// Get returns the renderer for format, or nil.
func (r *Registry) Get(format string) Renderer {
	return r.renderers[strings.ToLower(format)]
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultRegistry returns a registry with all built-in renderers.
func DefaultRegistry(opts Options) *Registry {
	pick := func(def rune) rune {
		if opts.Delimiter != 0 {
			return opts.Delimiter
		}
		return def
	}

	table := func(name string, def rune) *TableRenderer {
		d := pick(def)
		return &TableRenderer{Name: name, Delimiter: d, Ext: delimitedExtension(d)}
	}

	r := NewRegistry()
	r.Register(table("tsv", '\t'))
	r.Register(table("csv", ','))
	r.Register(table("ssv", ';'))
	r.Register(&WorkbookRenderer{})
	r.Register(&LedgerRenderer{Delimiter: pick(',')})
	return r
}

// delimitedExtension is ".tsv" for tab-separated output and ".csv" otherwise.
func delimitedExtension(delimiter rune) string {
	if delimiter == '\t' {
		return ".tsv"
	}
	return ".csv"
}
