// Copyright (C) 2025 ClutterBug Labs (dev@clutterbug.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the ClutterBug CLI.
package ux

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
)

// ClutterBug color palette - workshop woods and label-maker accents
var (
	ColorAmber  = lipgloss.Color("#E8A33D") // Primary amber - brand color
	ColorHoney  = lipgloss.Color("#F4C168") // Light amber - highlights
	ColorWalnut = lipgloss.Color("#8A5A2B") // Walnut brown - borders
	ColorSage   = lipgloss.Color("#7FA86B") // Sage green - success
	ColorClay   = lipgloss.Color("#C96F4A") // Clay red - errors
	ColorGold   = lipgloss.Color("#D9B23D") // Gold - warnings
	ColorSlate  = lipgloss.Color("#6B7280") // Slate - muted text
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorAmber),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSage),
	Warning:   lipgloss.NewStyle().Foreground(ColorGold),
	Error:     lipgloss.NewStyle().Foreground(ColorClay),
	Highlight: lipgloss.NewStyle().Bold(true).Foreground(ColorHoney),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWalnut).
		Padding(0, 1),
}

// Icon provides themed status icons.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconBullet  Icon = "•"
	IconArrow   Icon = "→"
	IconBox     Icon = "▣"
)

// Render returns the icon with its semantic styling.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return string(i)
	}
}

// plain disables styling and icons for machine-readable output.
var plain atomic.Bool

// SetPlain switches all helpers to unstyled prefix output, for piping
// and scripting. NO_COLOR in the environment has the same effect.
func SetPlain(v bool) {
	plain.Store(v)
}

func isPlain() bool {
	if plain.Load() {
		return true
	}
	_, noColor := os.LookupEnv("NO_COLOR")
	return noColor
}

// Title prints a styled section title.
func Title(text string) {
	if isPlain() {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with a checkmark.
func Success(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if isPlain() {
		fmt.Printf("OK: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconSuccess.Render(), text)
}

// Warning prints a warning message.
func Warning(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if isPlain() {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message.
func Error(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if isPlain() {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Info prints a plain informational line.
func Info(format string, args ...any) {
	fmt.Printf(format+"\n", args...)
}

// Muted prints secondary text.
func Muted(text string) {
	if isPlain() {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}
