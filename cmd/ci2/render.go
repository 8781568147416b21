package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"ci2/internal/app"
	"ci2/internal/doctor"
)

type styles struct {
	pass  lipgloss.Style
	fail  lipgloss.Style
	muted lipgloss.Style
}

// newStyles colors output only when stdout is a terminal.
func newStyles() styles {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return styles{pass: lipgloss.NewStyle(), fail: lipgloss.NewStyle(), muted: lipgloss.NewStyle()}
	}
	return styles{
		pass:  lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true),
		muted: lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
	}
}

func (s styles) ok(msg string) string  { return s.pass.Render("ok") + " " + msg }
func (s styles) bad(msg string) string { return s.fail.Render("FAIL") + " " + msg }

func renderCheck(st styles, res app.CheckResult) {
	r := res.Report
	for _, d := range res.Created {
		fmt.Println(st.muted.Render("created " + d))
	}
	for _, f := range r.Findings {
		if strings.HasPrefix(f.Code, "ENV_CONFIG_") {
			fmt.Printf("%s [%s] %s\n", st.muted.Render("warn"), f.Code, f.Message)
		}
	}
	if r.RootReachable {
		fmt.Println(st.ok("root reachable: " + r.Root))
	} else {
		fmt.Println(st.bad("root not reachable: " + r.Root))
	}
	if len(r.Missing) == 0 {
		fmt.Println(st.ok("directory structure exists"))
	} else {
		fmt.Println(st.bad("missing directories:"))
		for _, d := range r.Missing {
			fmt.Println("   -", d)
		}
	}
	switch {
	case hasFinding(r, "ENV_SECRETS_UNREADABLE"):
		fmt.Println(st.bad("keys file could not be read: " + r.Secrets.Path))
	case !r.Secrets.Exists:
		fmt.Println(st.bad("keys file not found: " + r.Secrets.Path))
	case len(r.Secrets.KeyNames) == 0:
		fmt.Println(st.bad("keys file loaded but appears empty: " + r.Secrets.Path))
	default:
		fmt.Println(st.ok("keys file found: " + r.Secrets.Path))
		fmt.Println(st.ok(fmt.Sprintf("keys present (%d): %s", len(r.Secrets.KeyNames), strings.Join(r.Secrets.KeyNames, ", "))))
	}
	for _, f := range r.Findings {
		if f.Code == "ENV_SECRETS_UNREADABLE" || f.Code == "ENV_CANCELED" {
			fmt.Printf("%s [%s] %s\n", st.fail.Render("error"), f.Code, f.Message)
		}
	}
	if r.Healthy {
		fmt.Println(st.ok("system ready"))
	}
}

func hasFinding(r doctor.Report, code string) bool {
	for _, f := range r.Findings {
		if f.Code == code {
			return true
		}
	}
	return false
}
