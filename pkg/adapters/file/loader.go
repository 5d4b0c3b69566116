package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Document base names looked up by Loader.
const (
	FlowName     = "flow"
	OffRouteName = "offroute"
	RulesName    = "recommendation_rules"
)

// extensions are tried in order for each document.
var extensions = []string{".json", ".yaml", ".yml"}

// Loader reads the script documents from a directory, in JSON or YAML.
type Loader struct {
	fsys fs.FS
	// OptionalRules makes a missing rules document load as empty.
	OptionalRules bool
}

var _ ports.ScriptLoader = (*Loader)(nil)

// NewLoader creates a Loader for the documents in dir.
func NewLoader(dir string) *Loader {
	return NewFSLoader(os.DirFS(dir))
}

// NewFSLoader creates a Loader over any file system, e.g. an embed.FS.
func NewFSLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

func (l *Loader) LoadFlow(ctx context.Context) (*domain.FlowDocument, error) {
	var doc domain.FlowDocument
	if err := l.decode(FlowName, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (l *Loader) LoadOffRoute(ctx context.Context) (*domain.OffRouteDocument, error) {
	var doc domain.OffRouteDocument
	if err := l.decode(OffRouteName, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadRules returns the rules as JSON. YAML documents are converted.
func (l *Loader) LoadRules(ctx context.Context) (domain.RecommendationRules, error) {
	name, data, err := l.read(RulesName)
	if err != nil {
		if l.OptionalRules && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if path.Ext(name) == ".json" {
		if !json.Valid(data) {
			return nil, fmt.Errorf("%s: not valid JSON", name)
		}
		return domain.RecommendationRules(data), nil
	}

	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("%s: cannot convert to JSON: %w", name, err)
	}
	return domain.RecommendationRules(raw), nil
}

func (l *Loader) decode(base string, dst any) error {
	name, data, err := l.read(base)
	if err != nil {
		return err
	}
	if path.Ext(name) == ".json" {
		err = json.Unmarshal(data, dst)
	} else {
		err = yaml.Unmarshal(data, dst)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// read returns the first existing file named base plus a known extension.
func (l *Loader) read(base string) (string, []byte, error) {
	for _, ext := range extensions {
		name := base + ext
		data, err := fs.ReadFile(l.fsys, name)
		if err == nil {
			return name, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
	return "", nil, fmt.Errorf("%s document (%s.json, .yaml or .yml): %w", base, base, fs.ErrNotExist)
}
