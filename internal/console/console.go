// Copyright Veracode, Inc., 2026. All rights reserved.

// Package console renders pipeline progress. A Printer is passed
// explicitly to every stage that reports progress, so the core pipeline
// carries no ambient print state and tests can capture or silence it.
package console

import (
	"fmt"
	"io"
	"os"
)

// Status icons keyed by report status, plus general pipeline glyphs.
var (
	statusIcons = map[string]string{
		"SUBMITTED":  "⏳",
		"PROCESSING": "🔄",
		"COMPLETED":  "✅",
		"UNKNOWN":    "❔",
	}

	glyphs = map[string]string{
		"window": "🗂️",
		"report": "📄",
		"page":   "📦",
		"done":   "📊",
		"arrow":  "➡️",
		"audit":  "🧾",
	}
)

// Printer writes progress lines to Out and warnings to Err. When Icons
// is false all glyphs render as empty strings.
type Printer struct {
	Icons bool
	Out   io.Writer
	Err   io.Writer
}

// New returns a Printer writing to stdout/stderr.
func New(icons bool) *Printer {
	return &Printer{Icons: icons, Out: os.Stdout, Err: os.Stderr}
}

// Icon returns the glyph for name, or "" when icons are disabled.
func (p *Printer) Icon(name string) string {
	if !p.Icons {
		return ""
	}
	return glyphs[name]
}

// StatusIcon returns the glyph for a report status, falling back to the
// UNKNOWN glyph for unrecognized statuses.
func (p *Printer) StatusIcon(status string) string {
	if !p.Icons {
		return ""
	}
	if icon, ok := statusIcons[status]; ok {
		return icon
	}
	return statusIcons["UNKNOWN"]
}

// Infof prints one progress line to Out. A leading icon argument of ""
// collapses cleanly, so callers always pass through Icon/StatusIcon.
func (p *Printer) Infof(format string, args ...any) {
	fmt.Fprintf(p.Out, format+"\n", args...)
}

// Warnf prints one warning line to Err.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintf(p.Err, format+"\n", args...)
}
