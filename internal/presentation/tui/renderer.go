package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 80

// Renderer prints the conversation to a terminal.
// Assistant messages are Markdown and go through glamour; the rest is styled with termenv.
// When the writer is not a terminal it falls back to plain text and skips the typing line.
type Renderer struct {
	mu       sync.Mutex
	out      *termenv.Output
	markdown *glamour.TermRenderer
	tty      bool
	typing   bool
}

var _ ports.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer writing to w (stdout when nil).
func NewRenderer(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stdout
	}
	tty, width := terminal(w)

	r := &Renderer{tty: tty}
	if tty {
		r.out = termenv.NewOutput(w)
		r.markdown, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-4),
		)
	} else {
		r.out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
		r.markdown, _ = glamour.NewTermRenderer(
			glamour.WithStandardStyle("notty"),
			glamour.WithWordWrap(width),
		)
	}
	return r
}

func terminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < 20 {
		width = defaultWidth
	}
	return true, width
}

func (r *Renderer) clearTyping() {
	if r.typing {
		r.out.ClearLine()
		fmt.Fprint(r.out, "\r")
		r.typing = false
	}
}

func (r *Renderer) ShowAssistantMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearTyping()

	body := text
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(text); err == nil {
			body = strings.Trim(rendered, "\n")
		}
	}
	fmt.Fprintln(r.out, r.out.String("coach").Bold().Foreground(r.out.Color("#a78bfa")))
	fmt.Fprintln(r.out, body)
}

func (r *Renderer) ShowUserMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearTyping()
	fmt.Fprintf(r.out, "%s %s\n", r.out.String("you ›").Foreground(r.out.Color("#38bdf8")), text)
}

func (r *Renderer) ShowSystemNotice(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearTyping()
	fmt.Fprintln(r.out, r.out.String("! "+text).Italic().Faint())
}

func (r *Renderer) ShowQuickReplies(labels []string) {
	if len(labels) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearTyping()
	for i, label := range labels {
		fmt.Fprintf(r.out, "  %s %s\n", r.out.String(fmt.Sprintf("[%d]", i+1)).Foreground(r.out.Color("#f472b6")), label)
	}
}

func (r *Renderer) ShowCards(cards []domain.Card) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearTyping()
	for i, c := range cards {
		var facts []string
		for _, f := range []string{c.Age, c.Goal, c.Time} {
			if f != "" {
				facts = append(facts, f)
			}
		}
		fmt.Fprintf(r.out, "  %s %s", r.out.String(fmt.Sprintf("/card %d", i+1)).Bold(), c.Name)
		if len(facts) > 0 {
			fmt.Fprintf(r.out, " (%s)", strings.Join(facts, ", "))
		}
		fmt.Fprintln(r.out)
		if c.Quote != "" {
			fmt.Fprintf(r.out, "    %s\n", r.out.String("“"+c.Quote+"”").Italic())
		}
	}
}

func (r *Renderer) SetTypingIndicator(on bool) {
	if !r.tty {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !on {
		r.clearTyping()
		return
	}
	if !r.typing {
		fmt.Fprint(r.out, r.out.String("coach is typing…").Faint())
		r.typing = true
	}
}

func (r *Renderer) SetInputEnabled(enabled bool) {
	if !enabled {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearTyping()
	fmt.Fprint(r.out, "> ")
}
