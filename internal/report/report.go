// Package report renders resolved models and resolution errors for humans.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/prodchain/internal/diag"
	"github.com/vk/prodchain/internal/model"
)

// Options controls rendering.
type Options struct {
	Color bool
	// Width wraps diagnostic details; zero disables wrapping.
	Width uint
}

type palette struct {
	heading *color.Color
	name    *color.Color
	faint   *color.Color
	errKind *color.Color
	ok      *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		heading: color.New(color.Bold),
		name:    color.New(color.FgCyan),
		faint:   color.New(color.FgHiBlack),
		errKind: color.New(color.FgRed, color.Bold),
		ok:      color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.heading, p.name, p.faint, p.errKind, p.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Model writes a text listing of every machine with its dependencies and
// recipe figures.
func Model(w io.Writer, m *model.Model, opts Options) error {
	p := newPalette(opts.Color)
	var sb strings.Builder

	for i, mc := range m.Machines() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(p.heading.Sprint("machine ") + p.name.Sprint(mc.Name))
		if mc.Base != "" {
			sb.WriteString(" : " + mc.Base)
		}
		sb.WriteByte('\n')
		fmt.Fprintf(&sb, "  chain: %s\n", strings.Join(mc.Chain, " -> "))

		if len(mc.Deps) > 0 {
			sb.WriteString("  deps:\n")
			names := make([]string, 0, len(mc.Deps))
			for name := range mc.Deps {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(&sb, "    %s = %s\n", name, mc.Deps[name].Literal)
			}
		}

		if len(mc.Recipes) == 0 {
			sb.WriteString(p.faint.Sprint("  no recipes") + "\n")
			continue
		}
		sb.WriteString("  recipes:\n")
		for _, r := range mc.Recipes {
			fmt.Fprintf(&sb, "    %s  %s ms  %s items/s  %s kW%s\n",
				p.name.Sprint(r.Signature), num(r.DurationMs), num(r.Rate), num(r.PowerKW),
				p.faint.Sprintf("  (from %s)", r.DeclaredBy))
			for _, part := range r.Inputs {
				fmt.Fprintf(&sb, "      in   %dx %s  %s/s\n", part.Quantity, part.Product, num(part.PerSecond))
			}
			for _, part := range r.Outputs {
				fmt.Fprintf(&sb, "      out  %dx %s  %s/s\n", part.Quantity, part.Product, num(part.PerSecond))
			}
		}
	}

	fmt.Fprintf(&sb, "\n%s %d machines, %d recipes, %d products\n",
		p.ok.Sprint("resolved:"), m.Len(), m.RecipeCount(), len(m.Products()))
	_, err := io.WriteString(w, sb.String())
	return err
}

// Errors writes err as source-annotated diagnostics followed by a summary
// line. sources maps filenames to their contents for the snippets; missing
// files are rendered without one.
func Errors(w io.Writer, err error, sources map[string][]byte, opts Options) error {
	p := newPalette(opts.Color)
	files := make(map[string]*hcl.File, len(sources))
	for name, src := range sources {
		files[name] = &hcl.File{Bytes: src}
	}

	dw := hcl.NewDiagnosticTextWriter(w, files, opts.Width, opts.Color)
	if werr := dw.WriteDiagnostics(diag.Diagnostics(err)); werr != nil {
		return fmt.Errorf("failed to write diagnostics: %w", werr)
	}

	errs := diag.Flatten(err)
	if len(errs) == 0 {
		return nil
	}
	counts := make(map[diag.Kind]int)
	for _, e := range errs {
		counts[e.Kind()]++
	}
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", counts[diag.Kind(k)], p.errKind.Sprint(k))
	}
	_, werr := fmt.Fprintf(w, "%s %s\n", p.heading.Sprintf("%d errors:", len(errs)), strings.Join(parts, ", "))
	return werr
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
