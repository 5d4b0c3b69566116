package ports

import (
	"context"

	"github.com/aretw0/coach/pkg/domain"
)

// Backend is the request/response contract of the conversational backend.
// Implementations return an error wrapping domain.ErrUnavailable for any
// non-success response or transport fault; the engine converts it into a
// local fallback and never propagates it further.
type Backend interface {
	// Message asks the open-ended fallback to answer an off-route utterance.
	Message(ctx context.Context, req domain.MessageRequest) (*domain.MessageResponse, error)

	// StoreMemory persists a subset of session fields. Best-effort.
	StoreMemory(ctx context.Context, req domain.MemoryStoreRequest) error

	// FetchMemory retrieves what is remembered about the visitor.
	FetchMemory(ctx context.Context, req domain.MemoryFetchRequest) (*domain.MemoryFetchResponse, error)

	// Carousel lists transformation stories matching the visitor.
	Carousel(ctx context.Context, q domain.CarouselQuery) ([]domain.Card, error)

	// Recommend synthesizes a personalized plan.
	Recommend(ctx context.Context, req domain.RecommendRequest) (*domain.Recommendation, error)
}
