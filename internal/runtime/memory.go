package runtime

import (
	"context"

	"github.com/aretw0/coach/pkg/domain"
)

// writeMemory persists the named session fields. It is best-effort:
// only a done context is reported back.
func (e *Engine) writeMemory(ctx context.Context, session *domain.Session, fields []string) error {
	data := make(map[string]any, len(fields))
	for _, name := range fields {
		if v, ok := session.Lookup(name); ok {
			data[name] = v
		}
	}

	_, err := e.call(ctx, session, domain.CallMemoryStore, func() error {
		return e.backend.StoreMemory(ctx, domain.MemoryStoreRequest{SessionID: session.ID, Data: data})
	})
	return err
}
