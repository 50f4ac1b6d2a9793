// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the VocabVault CLI.
package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// VocabVault color palette - forest greens and parchment
var (
	ColorLeafBright = lipgloss.Color("#5FD787") // Bright leaf - highlights, success
	ColorLeaf       = lipgloss.Color("#3CB371") // Primary green - brand color
	ColorMoss       = lipgloss.Color("#2E8B57") // Moss - secondary elements
	ColorPine       = lipgloss.Color("#1F6E43") // Pine - borders, accents
	ColorBark       = lipgloss.Color("#4A4A42") // Bark - muted text
	ColorParchment  = lipgloss.Color("#EDE6D6") // Parchment - emphasized text

	// Semantic colors
	ColorSuccess = lipgloss.Color("#5FD787")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Current   lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorLeafBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorLeaf),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorBark),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorLeafBright).Bold(true),
	Current:   lipgloss.NewStyle().Foreground(ColorParchment).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPine).
		Padding(0, 1),
}

// Title prints a styled title line.
func Title(text string) {
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with a checkmark.
func Success(text string) {
	fmt.Printf("%s %s\n", Styles.Success.Render("✓"), text)
}

// Warning prints a warning message.
func Warning(text string) {
	fmt.Printf("%s %s\n", Styles.Warning.Render("⚠"), text)
}

// Error prints an error message.
func Error(text string) {
	fmt.Printf("%s %s\n", Styles.Error.Render("✗"), text)
}

// Muted prints a de-emphasized line.
func Muted(text string) {
	fmt.Println(Styles.Muted.Render(text))
}

// Table renders a simple two-space-separated table with a styled header.
//
// Column widths are sized to the longest cell; rows with fewer cells
// than the header are padded.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range header {
		b.WriteString(Styles.Subtitle.Render(pad(h, widths[i])))
		if i < len(header)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i := range header {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(pad(cell, widths[i]))
			if i < len(header)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// pad right-pads s with spaces to the given display width.
func pad(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
