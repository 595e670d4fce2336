package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cftrigger/internal/engine"
	"cftrigger/internal/storage/models"
	"cftrigger/internal/trigger"
)

var (
	passColor  = lipgloss.Color("#34A853")
	failColor  = lipgloss.Color("#EA4335")
	mutedColor = lipgloss.Color("#9AA0A6")
	linkColor  = lipgloss.Color("#8AB4F8")

	passStyle  = lipgloss.NewStyle().Foreground(passColor).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(failColor).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(mutedColor).Width(12)
	linkStyle  = lipgloss.NewStyle().Foreground(linkColor).Underline(true)
	errorStyle = lipgloss.NewStyle().Foreground(failColor)
	hintStyle  = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	headerStyle = lipgloss.NewStyle().Foreground(linkColor).Bold(true)
)

// badgeStyle colors a badge by its icon class. An unclassified status keeps
// the success icon, so it renders green even though the verdict is a fail.
func badgeStyle(icon engine.IconClass) lipgloss.Style {
	if icon == engine.IconError {
		return failStyle
	}
	return passStyle
}

func renderOutcome(w io.Writer, result *trigger.Result, runErr error) {
	if result == nil || result.Outcome == nil {
		return
	}
	out := result.Outcome

	var rows []string
	row := func(label, value string) {
		if value != "" {
			rows = append(rows, labelStyle.Render(label)+value)
		}
	}

	row("Service", string(out.ServiceID))
	row("Branch", out.Branch)
	row("Build", string(out.BuildID))
	if out.Polls > 0 {
		row("Polls", fmt.Sprintf("%d", out.Polls))
	}

	if out.Badge != nil {
		badge := badgeStyle(out.Badge.Icon).Render(fmt.Sprintf("[%s] %s", out.Badge.Icon, out.Badge.Label))
		row("Badge", badge)
		row("URL", linkStyle.Render(string(out.Badge.URL)))
	}
	row("Invocation", result.InvocationID)

	verdict := passStyle.Render("PASSED")
	if !out.Passed {
		verdict = failStyle.Render("FAILED")
	}

	message := out.Message
	if runErr != nil {
		message = runErr.Error()
	}

	fmt.Fprintln(w, verdict+" "+message)
	fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderServices(w io.Writer, options []engine.ServiceOption) {
	if len(options) == 0 {
		fmt.Fprintln(w, hintStyle.Render("No services visible to this token."))
		return
	}

	idWidth := len("ID")
	for _, opt := range options {
		idWidth = max(idWidth, len(opt.ID))
	}
	idCol := lipgloss.NewStyle().Width(idWidth + 2)

	fmt.Fprintln(w, headerStyle.Render("  "+idCol.Render("ID")+"NAME"))
	for _, opt := range options {
		marker := "  "
		name := opt.Name
		if opt.Selected {
			marker = passStyle.Render("* ")
			name = passStyle.Render(name)
		}
		fmt.Fprintln(w, marker+idCol.Render(string(opt.ID))+name)
	}
}

func renderDiagnostic(w io.Writer, diag engine.Diagnostic) {
	if diag.OK {
		fmt.Fprintln(w, passStyle.Render(diag.Message)+" "+hintStyle.Render("authenticated as "+diag.Username))
		return
	}
	fmt.Fprintln(w, failStyle.Render(diag.Message))
}

func renderHistory(w io.Writer, invocations []models.Invocation) {
	if len(invocations) == 0 {
		fmt.Fprintln(w, hintStyle.Render("No invocations recorded."))
		return
	}

	for _, inv := range invocations {
		verdict := passStyle.Render("PASS")
		if !inv.Passed {
			verdict = failStyle.Render("FAIL")
		}

		detail := inv.Status
		if inv.Error != "" {
			detail = firstLine(inv.Error)
		}

		fmt.Fprintf(w, "%s %s %s %s %s\n",
			verdict,
			hintStyle.Render(inv.StartedAt.Local().Format("2006-01-02 15:04:05")),
			inv.Source,
			inv.Target,
			detail,
		)
		if inv.URL != "" {
			fmt.Fprintln(w, "     "+linkStyle.Render(inv.URL))
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
