package handlers

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/imamik/magnet/internal/compute"
	"github.com/imamik/magnet/internal/health"
	"github.com/imamik/magnet/internal/teardown"
)

var (
	colorGreen = lipgloss.Color("#22c55e")
	colorRed   = lipgloss.Color("#ef4444")
	colorBlue  = lipgloss.Color("#3b82f6")
	colorDim   = lipgloss.Color("#6b7280")
)

// styles holds the output styles for one writer. They are plain when the
// writer is not a terminal.
type styles struct {
	header lipgloss.Style
	dim    lipgloss.Style
	good   lipgloss.Style
	bad    lipgloss.Style
}

func stylesFor(w io.Writer) styles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return styles{header: plain, dim: plain, good: plain, bad: plain}
	}
	return styles{
		header: lipgloss.NewStyle().Bold(true).Foreground(colorBlue),
		dim:    lipgloss.NewStyle().Foreground(colorDim),
		good:   lipgloss.NewStyle().Foreground(colorGreen),
		bad:    lipgloss.NewStyle().Foreground(colorRed),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newTable(s styles, headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.dim).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// renderInstances writes a table of instances.
func renderInstances(w io.Writer, instances []*compute.Instance) {
	s := stylesFor(w)
	if len(instances) == 0 {
		fmt.Fprintln(w, s.dim.Render("No instances found."))
		return
	}

	t := newTable(s, "NAME", "ID", "STATUS", "ADDRESS")
	for _, i := range instances {
		t.Row(i.Name, i.ID, string(i.Status), orDash(i.Address))
	}
	fmt.Fprintln(w, t.String())
}

// renderHealth writes a table of probe verdicts.
func renderHealth(w io.Writer, results []health.Result) {
	s := stylesFor(w)
	if len(results) == 0 {
		fmt.Fprintln(w, s.dim.Render("No instances probed."))
		return
	}

	t := newTable(s, "NAME", "ADDRESS", "HEALTH", "REASON")
	for _, r := range results {
		verdict := s.good.Render("healthy")
		if !r.Healthy {
			verdict = s.bad.Render("unhealthy")
		}
		t.Row(r.Instance.Name, orDash(r.Instance.Address), verdict, orDash(r.Reason))
	}
	fmt.Fprintln(w, t.String())
}

// renderReport writes the per-step outcome of a teardown.
func renderReport(w io.Writer, report *teardown.Report) {
	s := stylesFor(w)
	t := newTable(s, "STEP", "DELETED", "RESULT")
	for _, step := range report.Steps {
		var result string
		switch {
		case step.Err != nil:
			result = s.bad.Render(step.Err.Error())
		case step.Skipped:
			result = s.dim.Render("skipped: " + step.Reason)
		default:
			result = s.good.Render("ok")
		}
		t.Row(step.Name, strconv.Itoa(step.Deleted), result)
	}
	fmt.Fprintln(w, t.String())
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
