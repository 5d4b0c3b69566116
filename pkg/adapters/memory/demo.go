package memory

import "github.com/aretw0/coach/pkg/domain"

// NewDemoBackend returns a backend with canned answers for offline runs.
// Visitor memory is never remembered, so every conversation starts fresh.
func NewDemoBackend() *Backend {
	return &Backend{
		Reply: &domain.MessageResponse{
			Reply: "Good question! A coach will follow up with the details. Shall we keep going?",
		},
		Cards: []domain.Card{
			{Name: "Maya", Age: "34", Goal: "Lose 10 kg", Time: "5 months", Quote: "I stopped dieting and started eating."},
			{Name: "Tom", Age: "52", Goal: "Run a 10k", Time: "4 months", Quote: "Three short runs a week did it."},
			{Name: "Priya", Age: "41", Goal: "Get strong", Time: "6 months", Quote: "I lift my kids without thinking now."},
		},
		Recommendation: &domain.Recommendation{
			Summary: "You want steady progress that fits a busy week.",
			Plan:    "Momentum, three 30-minute sessions a week",
		},
	}
}
