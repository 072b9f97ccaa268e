package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	binderrors "github.com/conduit-lang/ormbind/internal/orm/errors"
)

// Level is the severity of a rendered message
type Level int

const (
	LevelError Level = iota
	LevelWarning
)

// Message is a structured terminal message
type Message struct {
	Level       Level
	Title       string
	Problem     string
	Details     []string
	Suggestions []string
	Help        []string
}

// Format renders the message
//
//	✗ ENTITY NOT FOUND: Dgo
//	   No entity named 'Dgo' in the latest report.
//
//	   Did you mean: Dog?
//
//	   → List entities: ormbind inspect
func (m Message) Format(noColor bool) string {
	var b strings.Builder

	head, body := painter(noColor, color.FgRed, color.Bold), painter(noColor, color.FgRed)
	symbol := "✗"
	if m.Level == LevelWarning {
		head, body = painter(noColor, color.FgYellow, color.Bold), painter(noColor, color.FgYellow)
		symbol = "!"
	}

	if m.Title != "" {
		head.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(m.Title))
	}
	if m.Problem != "" {
		body.Fprintf(&b, "   %s\n", m.Problem)
	}
	for _, d := range m.Details {
		fmt.Fprintf(&b, "   %s\n", d)
	}
	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		painter(noColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}
	if len(m.Help) > 0 {
		b.WriteString("\n")
		cyan := painter(noColor, color.FgCyan)
		for _, h := range m.Help {
			cyan.Fprintf(&b, "   → %s\n", h)
		}
	}
	return b.String()
}

// Write renders the message to w
func (m Message) Write(w io.Writer, noColor bool) {
	fmt.Fprint(w, m.Format(noColor))
}

// Success renders a green check line
func Success(w io.Writer, message string, noColor bool) {
	painter(noColor, color.FgGreen, color.Bold).Fprintf(w, "✓ %s\n", message)
}

// BindFailure describes a failed bootstrap run. A *BindError in err's
// chain contributes its code, class, attribute and suggestion.
func BindFailure(err error) Message {
	m := Message{
		Level:   LevelError,
		Title:   "bind failed",
		Problem: err.Error(),
		Help:    []string{"Get help: ormbind bind --help"},
	}

	bindErr, ok := binderrors.AsBindError(err)
	if !ok {
		return m
	}
	m.Title = fmt.Sprintf("bind failed [%s]", bindErr.Code)
	m.Problem = bindErr.Message
	if bindErr.ClassName != "" {
		m.Details = append(m.Details, "class: "+bindErr.ClassName)
	}
	if bindErr.Attribute != "" {
		m.Details = append(m.Details, "attribute: "+bindErr.Attribute)
	}
	if bindErr.Suggestion != "" {
		m.Help = append([]string{bindErr.Suggestion}, m.Help...)
	}
	if binderrors.IsUnsupported(err) {
		m.Details = append(m.Details, "the model uses a feature this binder does not implement")
	}
	return m
}

// NotFound describes a missing entity or table with close-match suggestions
func NotFound(kind, name string, suggestions []string, listCommand string) Message {
	return Message{
		Level:       LevelError,
		Title:       kind + " not found",
		Problem:     fmt.Sprintf("No %s named '%s' in the report.", kind, name),
		Suggestions: suggestions,
		Help:        []string{"List all: " + listCommand},
	}
}

// ConfigFailure describes an invalid configuration
func ConfigFailure(err error) Message {
	return Message{
		Level:   LevelError,
		Title:   "configuration error",
		Problem: err.Error(),
		Help: []string{
			"Write a fresh config: ormbind init",
			"Get help: ormbind --help",
		},
	}
}
