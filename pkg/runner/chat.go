package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/coach/pkg/conversation"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/coach/pkg/render"
)

// Chat commands recognized by the interactive loop.
const (
	CmdQuit = "/quit"
	CmdCard = "/card"
)

// Chat feeds line-oriented input into a single conversation.
// A bare number picks the matching quick reply; "/card N" selects a carousel card.
type Chat struct {
	Reader *bufio.Reader
	Writer io.Writer

	mu      sync.Mutex
	replies []string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// NewChat creates a chat loop over r and w. Nil values default to stdin and stdout.
func NewChat(r io.Reader, w io.Writer) *Chat {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &Chat{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
}

// Observe wraps next so the chat can resolve numbered quick replies.
func (c *Chat) Observe(next ports.Renderer) ports.Renderer {
	return render.Multi{next, chatObserver{c}}
}

type chatObserver struct {
	c *Chat
}

func (o chatObserver) ShowAssistantMessage(string) {}
func (o chatObserver) ShowUserMessage(string)      {}
func (o chatObserver) ShowSystemNotice(string)     {}
func (o chatObserver) ShowCards([]domain.Card)     {}
func (o chatObserver) SetTypingIndicator(bool)     {}
func (o chatObserver) SetInputEnabled(bool)        {}

func (o chatObserver) ShowQuickReplies(labels []string) {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	o.c.replies = append([]string(nil), labels...)
}

func (c *Chat) initPump() {
	c.startOnce.Do(func() {
		c.inputChan = make(chan inputResult)
		go c.pump()
	})
}

func (c *Chat) pump() {
	for {
		text, err := c.Reader.ReadString('\n')

		// If we got text (even with EOF), send it
		if text != "" {
			c.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				c.inputChan <- inputResult{err: err}
			}
			close(c.inputChan)
			return
		}
	}
}

// Run reads lines until EOF, /quit, ctx cancellation or the conversation closes.
func (c *Chat) Run(ctx context.Context, conv *conversation.Conversation) error {
	c.initPump()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-conv.Done():
			return nil
		case res, ok := <-c.inputChan:
			if !ok {
				return nil
			}
			if res.err != nil {
				return res.err
			}

			line := strings.TrimSpace(res.text)
			if line == CmdQuit {
				return nil
			}

			err := c.dispatch(ctx, conv, line)
			switch {
			case err == nil:
			case errors.Is(err, domain.ErrConversationClosed):
				return nil
			case errors.Is(err, context.Canceled):
				return err
			default:
				fmt.Fprintf(c.Writer, "Error: %v. Please try again.\n", err)
			}
		}
	}
}

func (c *Chat) dispatch(ctx context.Context, conv *conversation.Conversation, line string) error {
	if rest, ok := strings.CutPrefix(line, CmdCard); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return fmt.Errorf("usage: %s <number>", CmdCard)
		}
		return conv.SelectCardAt(ctx, n-1)
	}

	if label, ok := c.reply(line); ok {
		return conv.Choose(ctx, label)
	}
	return conv.Submit(ctx, line)
}

// reply maps "2" to the second quick reply currently shown.
func (c *Chat) reply(line string) (string, bool) {
	n, err := strconv.Atoi(line)
	if err != nil {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 || n > len(c.replies) {
		return "", false
	}
	return c.replies[n-1], true
}
