package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetServer(t *testing.T, assets map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := assets[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoader_LoadsScript(t *testing.T) {
	srv := assetServer(t, map[string]string{
		"/assets/flow.json":                 `{"start":"S1","states":[{"id":"S1","say":"Hi","collect":{"goal":"free"},"next":"S2"},{"id":"S2","say":["Done"]}]}`,
		"/assets/offroute.json":             `{"triggers":[{"id":"pricing","pattern":"price"}]}`,
		"/assets/recommendation_rules.json": `{"plans":["Core"]}`,
	})

	s, err := script.Load(context.Background(), NewLoader(srv.URL+"/assets/", nil))
	require.NoError(t, err)

	assert.Equal(t, "S1", s.Start())
	st, ok := s.State("S1")
	require.True(t, ok)
	assert.Equal(t, domain.Messages{"Hi"}, st.Say)
	assert.Len(t, s.Triggers(), 1)
	assert.JSONEq(t, `{"plans":["Core"]}`, string(s.Rules()))
}

func TestLoader_Failures(t *testing.T) {
	tests := []struct {
		name     string
		assets   map[string]string
		document string
	}{
		{
			name: "missing offroute",
			assets: map[string]string{
				"/flow.json":                 `{"start":"S1","states":[{"id":"S1"}]}`,
				"/recommendation_rules.json": `{}`,
			},
			document: script.DocOffRoute,
		},
		{
			name: "malformed flow",
			assets: map[string]string{
				"/flow.json":                 `{"start":`,
				"/offroute.json":             `{"triggers":[]}`,
				"/recommendation_rules.json": `{}`,
			},
			document: script.DocFlow,
		},
		{
			name: "rules not json",
			assets: map[string]string{
				"/flow.json":                 `{"start":"S1","states":[{"id":"S1"}]}`,
				"/offroute.json":             `{"triggers":[]}`,
				"/recommendation_rules.json": `plans: [Core]`,
			},
			document: script.DocRules,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := assetServer(t, tt.assets)
			_, err := script.Load(context.Background(), NewLoader(srv.URL, nil))

			var loadErr *domain.ScriptLoadError
			require.True(t, errors.As(err, &loadErr), "got %v", err)
			assert.Equal(t, tt.document, loadErr.Document)
		})
	}
}
