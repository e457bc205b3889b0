package main

import "github.com/charmbracelet/lipgloss"

const (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorMuted     = lipgloss.Color("#6B7280")
	colorSuccess   = lipgloss.Color("#10B981")
	colorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// titleStyle renders headings such as the MoonBit home line.
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

	// mutedStyle renders secondary details.
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	// currentStyle marks the installed toolchain.
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)

	// cmdStyle renders command suggestions and names.
	cmdStyle = lipgloss.NewStyle().Foreground(colorHighlight)
)
