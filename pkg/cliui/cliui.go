// Package cliui provides shared terminal styling for pulse CLI output.
package cliui

import "github.com/charmbracelet/lipgloss"

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")

	// KeyStyle renders config keys and event type labels.
	KeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)

	// ValueStyle renders config and payload values.
	ValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))

	// DimStyle renders secondary detail like file paths and event ids.
	DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)
