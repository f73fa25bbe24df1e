package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"contextai-go/internal/conversation"

	"github.com/charmbracelet/lipgloss"
)

var (
	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// renderer prints assistant messages incrementally as session snapshots
// arrive. User messages are already on screen because the user typed them.
type renderer struct {
	mu    sync.Mutex
	out   io.Writer
	shown map[uint64]string
	done  map[uint64]bool
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out, shown: map[uint64]string{}, done: map[uint64]bool{}}
}

func isFailure(text string) bool {
	return text == conversation.FailureNotice || text == conversation.UploadFailureNotice
}

func (r *renderer) observe(snap conversation.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range snap.Messages {
		if m.Sender != conversation.SenderAssistant || r.done[m.ID] {
			continue
		}
		prev, seen := r.shown[m.ID]
		if !seen {
			fmt.Fprint(r.out, assistantStyle.Render("assistant")+" ")
		}
		switch {
		case isFailure(m.Text):
			if prev != "" {
				fmt.Fprintln(r.out)
			}
			fmt.Fprint(r.out, errorStyle.Render(m.Text))
		case strings.HasPrefix(m.Text, prev):
			fmt.Fprint(r.out, m.Text[len(prev):])
		default:
			fmt.Fprint(r.out, "\n"+m.Text)
		}
		r.shown[m.ID] = m.Text
		if m.Sealed {
			fmt.Fprintln(r.out)
			r.done[m.ID] = true
		}
	}
}

func printDocuments(out io.Writer, docs []conversation.Document, selectedID string) {
	if len(docs) == 0 {
		fmt.Fprintln(out, hintStyle.Render("No documents uploaded yet."))
		return
	}
	for _, d := range docs {
		marker := "  "
		name := d.Filename
		if d.ID == selectedID {
			marker = selectedStyle.Render("*") + " "
			name = selectedStyle.Render(name)
		}
		fmt.Fprintf(out, "%s%s  %s\n", marker, name, idStyle.Render(d.ID))
	}
}
