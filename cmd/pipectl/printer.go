package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/Eman-Sallam/ai-pipeline-editor/catalog"
	"github.com/Eman-Sallam/ai-pipeline-editor/execution"
)

// printer writes human-readable output and doubles as an execution.Sink
// that prints each log entry as it is written.
type printer struct {
	mu  sync.Mutex
	out io.Writer

	info    *color.Color
	success *color.Color
	failure *color.Color
	header  *color.Color
	dim     *color.Color
}

func newPrinter(out io.Writer, noColor bool) *printer {
	p := &printer{
		out:     out,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		header:  color.New(color.FgCyan, color.Bold),
		dim:     color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.info, p.success, p.failure, p.header, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) Emit(e execution.Event) {
	if e.Kind != execution.EventLog || e.Entry == nil {
		return
	}
	p.entry(*e.Entry)
}

func (p *printer) entry(e execution.LogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dim.Fprintf(p.out, "[%s] ", e.Timestamp)
	p.severity(e.Severity).Fprintln(p.out, e.Message)
}

func (p *printer) severity(s execution.Severity) *color.Color {
	switch s {
	case execution.SeveritySuccess:
		return p.success
	case execution.SeverityError:
		return p.failure
	default:
		return p.info
	}
}

func (p *printer) ok(format string, args ...any) {
	p.success.Fprintf(p.out, "✓ "+format+"\n", args...)
}

func (p *printer) fail(format string, args ...any) {
	p.failure.Fprintf(p.out, "✗ "+format+"\n", args...)
}

// table renders rows under headers with padded columns.
func (p *printer) table(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range headers {
		p.header.Fprintf(p.out, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(p.out)
	for i := range headers {
		fmt.Fprint(p.out, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(p.out)
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(p.out, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(p.out)
	}
}

func (p *printer) stageTypes(types []catalog.StageType) {
	rows := make([][]string, len(types))
	for i, t := range types {
		rows[i] = []string{t.ID, t.Name, catalog.Lookup(t.Name).Description}
	}
	p.table([]string{"ID", "NAME", "DESCRIPTION"}, rows)
}
