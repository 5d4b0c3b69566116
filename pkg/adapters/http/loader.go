package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/ports"
)

// Asset names fetched by Loader relative to its base URL.
const (
	FlowAsset     = "flow.json"
	OffRouteAsset = "offroute.json"
	RulesAsset    = "recommendation_rules.json"
)

// Loader fetches the script documents from a static assets base URL.
type Loader struct {
	baseURL string
	http    *http.Client
}

var _ ports.ScriptLoader = (*Loader)(nil)

// NewLoader creates a Loader for assets under baseURL. A nil client uses a
// client with DefaultTimeout.
func NewLoader(baseURL string, hc *http.Client) *Loader {
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	return &Loader{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (l *Loader) LoadFlow(ctx context.Context) (*domain.FlowDocument, error) {
	var doc domain.FlowDocument
	if err := l.fetchJSON(ctx, FlowAsset, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (l *Loader) LoadOffRoute(ctx context.Context) (*domain.OffRouteDocument, error) {
	var doc domain.OffRouteDocument
	if err := l.fetchJSON(ctx, OffRouteAsset, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (l *Loader) LoadRules(ctx context.Context) (domain.RecommendationRules, error) {
	data, err := l.fetch(ctx, RulesAsset)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: not valid JSON", RulesAsset)
	}
	return domain.RecommendationRules(data), nil
}

func (l *Loader) fetchJSON(ctx context.Context, name string, dst any) error {
	data, err := l.fetch(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (l *Loader) fetch(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", name, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
