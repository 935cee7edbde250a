// Package render prints snapshots and results as aligned text tables,
// formatting numbers for a chosen locale.
package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"q.log/lpstep/convergence"
	"q.log/lpstep/solver"
)

// DefaultPrecision is the number of fraction digits used when none is set.
const DefaultPrecision = 4

// Renderer writes human-readable output to w.
type Renderer struct {
	w    io.Writer
	p    *message.Printer
	prec int
}

// New returns a renderer for tag. A negative precision selects
// DefaultPrecision.
func New(w io.Writer, tag language.Tag, precision int) *Renderer {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return &Renderer{w: w, p: message.NewPrinter(tag), prec: precision}
}

// ParseLanguage parses a BCP 47 tag, falling back to English for "".
func ParseLanguage(s string) (language.Tag, error) {
	if strings.TrimSpace(s) == "" {
		return language.English, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("language %q: %w", s, err)
	}
	return tag, nil
}

// Number formats v with the renderer's precision. Values that would print
// as a signed zero print as zero.
func (r *Renderer) Number(v float64) string {
	if math.Abs(v) < 0.5*math.Pow10(-r.prec) {
		v = 0
	}
	return r.p.Sprint(number.Decimal(v, number.MinFractionDigits(r.prec), number.MaxFractionDigits(r.prec)))
}

// Snapshot prints the header line and every table of s.
func (r *Renderer) Snapshot(s solver.Snapshot) error {
	if _, err := r.p.Fprintf(r.w, "step %d  %s  %s  objective %s\n",
		s.Iteration, s.Method, s.Status, r.Number(s.Objective)); err != nil {
		return err
	}
	for _, t := range s.Tables() {
		if err := r.Table(t); err != nil {
			return err
		}
	}
	return nil
}

// Table prints one named matrix with right-aligned columns.
func (r *Renderer) Table(t solver.Table) error {
	if _, err := fmt.Fprintf(r.w, "%s\n", t.Name); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, row := range t.Rows {
		var b strings.Builder
		for _, v := range row {
			b.WriteString(r.Number(v))
			b.WriteByte('\t')
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(tw, b.String()); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Result prints the final status, objective and point.
func (r *Renderer) Result(status convergence.Status, point []float64, objective float64) error {
	cells := make([]string, len(point))
	for i, v := range point {
		cells[i] = r.Number(v)
	}
	_, err := r.p.Fprintf(r.w, "status: %s\nobjective: %s\nx: [%s]\n",
		status, r.Number(objective), strings.Join(cells, " "))
	return err
}
