package loam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// ErrNoStart is returned when no state is marked as the start and none was configured.
var ErrNoStart = errors.New("no start state: mark one state with 'start: true'")

// Loader reads a conversation script from a Loam repository: one Markdown
// document per state, with the state's fields in the frontmatter and its
// messages in the body (paragraphs become separate messages).
type Loader struct {
	Repo  *loam.TypedRepository[Metadata]
	start string
}

var _ ports.ScriptLoader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithStart names the start state, overriding any 'start: true' marker.
func WithStart(id string) Option {
	return func(l *Loader) {
		l.start = id
	}
}

// New creates a Loader over an existing typed repository.
func New(repo *loam.TypedRepository[Metadata], opts ...Option) *Loader {
	l := &Loader{Repo: repo}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only Loam repository at dir.
// Strict mode keeps numbers as json.Number across Markdown and JSON documents.
func Open(dir string, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[Metadata](repo), opts...), nil
}

// LoadFlow assembles the flow from every non-reserved document.
func (l *Loader) LoadFlow(ctx context.Context) (*domain.FlowDocument, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	flow := &domain.FlowDocument{Start: l.start}
	seen := make(map[string]string)
	var starts []string

	for _, doc := range docs {
		id := documentID(doc.ID, doc.Data.ID)
		if id == OffRouteID || id == RulesID {
			continue
		}
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: state '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID

		st, err := buildState(id, doc.Data, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", id, err)
		}
		flow.States = append(flow.States, st)
		if doc.Data.Start {
			starts = append(starts, id)
		}
	}

	slices.SortFunc(flow.States, func(a, b domain.StateDef) int { return strings.Compare(a.ID, b.ID) })

	if flow.Start == "" {
		switch len(starts) {
		case 0:
			return nil, ErrNoStart
		case 1:
			flow.Start = starts[0]
		default:
			slices.Sort(starts)
			return nil, fmt.Errorf("multiple start states: %s", strings.Join(starts, ", "))
		}
	}
	return flow, nil
}

// LoadOffRoute reads the triggers of the offroute document.
func (l *Loader) LoadOffRoute(ctx context.Context) (*domain.OffRouteDocument, error) {
	doc, err := l.Repo.Get(ctx, OffRouteID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", OffRouteID, err)
	}

	out := &domain.OffRouteDocument{Triggers: make([]domain.Trigger, 0, len(doc.Data.Triggers))}
	for i, raw := range doc.Data.Triggers {
		var t domain.Trigger
		if err := mapstructure.Decode(raw, &t); err != nil {
			return nil, fmt.Errorf("trigger %d: %w", i, err)
		}
		out.Triggers = append(out.Triggers, t)
	}
	return out, nil
}

// LoadRules returns the 'rules' mapping of the recommendation_rules document as JSON.
func (l *Loader) LoadRules(ctx context.Context) (domain.RecommendationRules, error) {
	doc, err := l.Repo.Get(ctx, RulesID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", RulesID, err)
	}
	raw, err := json.Marshal(doc.Data.Rules)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	return domain.RecommendationRules(raw), nil
}

// Watch reports the ids of changed documents until ctx is done.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

func buildState(id string, meta Metadata, content string) (domain.StateDef, error) {
	st := domain.StateDef{
		ID:           id,
		Say:          meta.Say,
		QuickReplies: meta.QuickReplies,
		Next:         trimExtension(meta.Next),
		MemoryWrite:  meta.MemoryWrite,
	}
	if len(st.Say) == 0 {
		st.Say = paragraphs(content)
	}
	if len(meta.Collect) > 0 {
		st.Collect = make(map[string]domain.CaptureMode, len(meta.Collect))
		for field, mode := range meta.Collect {
			st.Collect[field] = domain.CaptureMode(mode)
		}
	}

	action, err := decodeAction(meta.Action)
	if err != nil {
		return st, err
	}
	st.Action = action
	return st, nil
}

func decodeAction(raw any) (domain.Action, error) {
	switch v := raw.(type) {
	case nil:
		return domain.Action{}, nil
	case string:
		return domain.Action{Kind: domain.ActionKind(v)}, nil
	case map[string]any, map[any]any:
		var spec actionSpec
		if err := mapstructure.Decode(v, &spec); err != nil {
			return domain.Action{}, fmt.Errorf("failed to decode action: %w", err)
		}
		return domain.Action{Kind: domain.ActionKind(spec.Kind), OnSelect: trimExtension(spec.OnSelect)}, nil
	default:
		return domain.Action{}, fmt.Errorf("invalid action type: %T", raw)
	}
}

// paragraphs splits a Markdown body on blank lines.
func paragraphs(content string) domain.Messages {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out domain.Messages
	for _, p := range strings.Split(content, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func documentID(docID, metaID string) string {
	if metaID != "" {
		return trimExtension(metaID)
	}
	return trimExtension(docID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
