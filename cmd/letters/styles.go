// cmd/letters/styles.go
package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2196F3"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)
