package runtime

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/coach/pkg/ports"
)

// DefaultChunkSize is the longest assistant bubble, in characters.
const DefaultChunkSize = 220

// Pacer splits assistant messages into bubbles and delays each behind the typing indicator.
type Pacer struct {
	// ChunkSize <= 0 disables splitting.
	ChunkSize int
	// Base is the minimum delay before a bubble.
	Base time.Duration
	// Jitter is the upper bound of the random delay added to Base.
	Jitter time.Duration
	// AfterWidget is added before the first bubble that follows a widget interaction.
	AfterWidget time.Duration

	// Rand returns a value in [0, 1). Defaults to math/rand/v2.
	Rand func() float64
}

// DefaultPacer returns the production pacing: 400ms plus up to 400ms of jitter.
func DefaultPacer() *Pacer {
	return &Pacer{
		ChunkSize:   DefaultChunkSize,
		Base:        400 * time.Millisecond,
		Jitter:      400 * time.Millisecond,
		AfterWidget: 300 * time.Millisecond,
	}
}

// InstantPacer chunks like production but never waits.
func InstantPacer() *Pacer {
	return &Pacer{ChunkSize: DefaultChunkSize}
}

// Delay returns the wait before one bubble.
func (p *Pacer) Delay(afterWidget bool) time.Duration {
	d := p.Base
	if p.Jitter > 0 {
		r := rand.Float64
		if p.Rand != nil {
			r = p.Rand
		}
		d += time.Duration(r() * float64(p.Jitter))
	}
	if afterWidget {
		d += p.AfterWidget
	}
	return d
}

// Say emits text as one or more assistant bubbles.
// It returns the context error if ctx is done while waiting.
func (p *Pacer) Say(ctx context.Context, r ports.Renderer, text string, afterWidget bool) error {
	for i, part := range ChunkText(text, p.ChunkSize) {
		r.SetTypingIndicator(true)
		err := sleep(ctx, p.Delay(afterWidget && i == 0))
		r.SetTypingIndicator(false)
		if err != nil {
			return err
		}
		r.ShowAssistantMessage(part)
	}
	return nil
}

// ChunkText splits text on the last space at or before max characters,
// hard-splitting words longer than max. Surrounding whitespace is trimmed.
func ChunkText(text string, max int) []string {
	s := strings.TrimSpace(text)
	if max <= 0 {
		if s == "" {
			return nil
		}
		return []string{s}
	}

	var out []string
	for utf8.RuneCountInString(s) > max {
		runes := []rune(s)
		cut := max
		for i := max; i >= 0; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}
		if cut == 0 {
			cut = max
		}
		out = append(out, string(runes[:cut]))
		s = strings.TrimSpace(string(runes[cut:]))
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
