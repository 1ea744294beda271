package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain"
)

var (
	accent  = lipgloss.Color("#D97706") // amber
	dim     = lipgloss.Color("#6B7280") // muted gray
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
)

const (
	undetectedHeader = "The following license files were found " +
		"but the correct license identifier couldn't be determined:"
	unlicensedHeader = "The following modules are missing license files:"
	staleHeader      = "The following license files that were specified in the configuration have changed:"
)

// Renderer formats reports for a terminal. Without color the output is
// plain text that scripts can parse.
type Renderer struct {
	path   lipgloss.Style
	expr   lipgloss.Style
	bad    lipgloss.Style
	ok     lipgloss.Style
	title  lipgloss.Style
	warn   lipgloss.Style
	subtle lipgloss.Style
}

// NewRenderer builds styles for w. Color is decided by the caller.
func NewRenderer(w io.Writer, color bool) *Renderer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Renderer{
		path:   r.NewStyle().Foreground(dim),
		expr:   r.NewStyle().Bold(true).Foreground(accent),
		bad:    r.NewStyle().Foreground(danger),
		ok:     r.NewStyle().Foreground(success),
		title:  r.NewStyle().Bold(true),
		warn:   r.NewStyle().Foreground(warning),
		subtle: r.NewStyle().Foreground(dim),
	}
}

// RenderReport renders rep in the given mode:
//
//	path: expression          (all, list)
//	<blank>
//	warning header
//	- offending path          (red)
//	<blank>
//	combined expression       (all, expression)
func (r *Renderer) RenderReport(rep *domain.Report, mode domain.ReportMode) string {
	var b strings.Builder
	data := rep.Data

	if mode == domain.ReportAll || mode == domain.ReportList {
		for _, p := range data.LicensePaths() {
			fmt.Fprintf(&b, "%s: %s\n", r.path.Render(p), data.LicenseMap[p])
		}
	}

	var undetected []string
	if !rep.HideUndetected {
		undetected = data.UndetectedLicenses
	}
	if len(undetected) > 0 || len(rep.UnlicensedModules) > 0 || len(data.UnmatchedExtraLicenses) > 0 {
		if mode != domain.ReportExpression {
			b.WriteString("\n")
		}
		r.warnList(&b, undetectedHeader, undetected)
		r.warnList(&b, unlicensedHeader, rep.UnlicensedModules)
		r.warnList(&b, staleHeader, data.UnmatchedExtraLicenses)
	}

	if mode == domain.ReportList {
		return b.String()
	}
	if mode != domain.ReportExpression {
		b.WriteString("\n")
	}
	b.WriteString(r.expr.Render(rep.Expression))
	b.WriteString("\n")
	return b.String()
}

func (r *Renderer) warnList(b *strings.Builder, header string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(header + "\n")
	for _, it := range items {
		b.WriteString(r.bad.Render("- "+it) + "\n")
	}
}

// RenderVerifyFailure is printed below the expression when it does not
// match the expected one.
func (r *Renderer) RenderVerifyFailure(expected string) string {
	return r.bad.Render("Failed to verify license. Expected ^") + "\n" +
		r.subtle.Render("expected: ") + expected + "\n"
}

// RenderDetectors lists available backends and the reason others are
// missing.
func (r *Renderer) RenderDetectors(available []domain.Detector, missing map[string]error, order []string) string {
	var b strings.Builder
	b.WriteString(r.title.Render("Available detectors:") + "\n")
	for _, d := range available {
		line := "- " + d.Name()
		if pkgs := d.PackagesNeeded(); len(pkgs) > 0 {
			line += r.subtle.Render(" (" + strings.Join(pkgs, ", ") + ")")
		}
		b.WriteString(r.ok.Render(line) + "\n")
	}
	if len(missing) == 0 {
		return b.String()
	}
	b.WriteString(r.title.Render("Unavailable detectors:") + "\n")
	for _, name := range order {
		err, ok := missing[name]
		if !ok {
			continue
		}
		b.WriteString(r.warn.Render("! "+name) + ": " + err.Error() + "\n")
	}
	return b.String()
}
