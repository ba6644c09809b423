package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// output renders terminal text with markdown and role styling
type output struct {
	renderer *glamour.TermRenderer

	userStyle  lipgloss.Style
	errorStyle lipgloss.Style
	dimStyle   lipgloss.Style
	boldStyle  lipgloss.Style
}

func newOutput() *output {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	return &output{
		renderer: renderer,

		userStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}).
			Bold(true),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),

		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),

		boldStyle: lipgloss.NewStyle().Bold(true),
	}
}

// Markdown renders assistant text as markdown, falling back to plain text
// when rendering fails.
func (o *output) Markdown(text string) {
	if o.renderer != nil {
		if rendered, err := o.renderer.Render(text); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Println(text)
}

func (o *output) Userf(format string, args ...interface{}) {
	fmt.Println(o.userStyle.Render(fmt.Sprintf(format, args...)))
}

func (o *output) Errorf(format string, args ...interface{}) {
	fmt.Println(o.errorStyle.Render(fmt.Sprintf(format, args...)))
}

func (o *output) Dimf(format string, args ...interface{}) {
	fmt.Println(o.dimStyle.Render(fmt.Sprintf(format, args...)))
}

func (o *output) Boldf(format string, args ...interface{}) {
	fmt.Println(o.boldStyle.Render(fmt.Sprintf(format, args...)))
}
