package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/aretw0/coach/pkg/domain"
)

// Backend is a scripted, in-process implementation of ports.Backend.
// Responses are fixed in advance and every request is recorded, which makes
// it suitable for tests and offline demos. A nil response field means the
// corresponding call fails with domain.ErrUnavailable.
type Backend struct {
	mu sync.Mutex

	Reply          *domain.MessageResponse
	Remembered     *domain.MemoryFetchResponse
	StoreErr       error
	Cards          []domain.Card
	CardsErr       error
	Recommendation *domain.Recommendation

	// Block, when set, is awaited by every call before it answers.
	Block chan struct{}

	Messages   []domain.MessageRequest
	Stored     []domain.MemoryStoreRequest
	Fetches    []domain.MemoryFetchRequest
	Queries    []domain.CarouselQuery
	Recommends []domain.RecommendRequest
}

// NewBackend returns a backend where every call fails until configured.
func NewBackend() *Backend {
	return &Backend{}
}

func unavailable(call string) error {
	return fmt.Errorf("%s: %w", call, domain.ErrUnavailable)
}

func (b *Backend) wait(ctx context.Context) error {
	if b.Block == nil {
		return nil
	}
	select {
	case <-b.Block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Backend) Message(ctx context.Context, req domain.MessageRequest) (*domain.MessageResponse, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	req.Context.Profile = maps.Clone(req.Context.Profile)
	b.Messages = append(b.Messages, req)
	if b.Reply == nil {
		return nil, unavailable(domain.CallMessage)
	}
	reply := *b.Reply
	return &reply, nil
}

func (b *Backend) StoreMemory(ctx context.Context, req domain.MemoryStoreRequest) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	req.Data = maps.Clone(req.Data)
	b.Stored = append(b.Stored, req)
	return b.StoreErr
}

func (b *Backend) FetchMemory(ctx context.Context, req domain.MemoryFetchRequest) (*domain.MemoryFetchResponse, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Fetches = append(b.Fetches, req)
	if b.Remembered == nil {
		return nil, unavailable(domain.CallMemoryFetch)
	}
	return &domain.MemoryFetchResponse{Profile: maps.Clone(b.Remembered.Profile)}, nil
}

func (b *Backend) Carousel(ctx context.Context, q domain.CarouselQuery) ([]domain.Card, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Queries = append(b.Queries, q)
	if b.CardsErr != nil {
		return nil, b.CardsErr
	}
	if b.Cards == nil {
		return nil, unavailable(domain.CallCarousel)
	}
	return append([]domain.Card(nil), b.Cards...), nil
}

func (b *Backend) Recommend(ctx context.Context, req domain.RecommendRequest) (*domain.Recommendation, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Recommends = append(b.Recommends, req)
	if b.Recommendation == nil {
		return nil, unavailable(domain.CallRecommend)
	}
	rec := *b.Recommendation
	return &rec, nil
}

// MessageCalls returns a copy of the recorded message requests.
func (b *Backend) MessageCalls() []domain.MessageRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.MessageRequest(nil), b.Messages...)
}

// StoreCalls returns a copy of the recorded memory writes.
func (b *Backend) StoreCalls() []domain.MemoryStoreRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.MemoryStoreRequest(nil), b.Stored...)
}

// CarouselCalls returns a copy of the recorded carousel queries.
func (b *Backend) CarouselCalls() []domain.CarouselQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.CarouselQuery(nil), b.Queries...)
}

// RecommendCalls returns a copy of the recorded recommendation requests.
func (b *Backend) RecommendCalls() []domain.RecommendRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.RecommendRequest(nil), b.Recommends...)
}
