package domain

// MessageContext is the minimal conversational context sent with an off-route question.
type MessageContext struct {
	StateID string         `json:"stateId"`
	Profile map[string]any `json:"profile"`
}

// MessageRequest is the body of POST /message.
type MessageRequest struct {
	SessionID string         `json:"sessionId"`
	Text      string         `json:"text"`
	Context   MessageContext `json:"context"`
}

// MessageResponse is the reply of the conversational fallback. Reply may be empty.
type MessageResponse struct {
	Reply string `json:"reply,omitempty"`
}

// MemoryStoreRequest is the body of POST /memory/store.
type MemoryStoreRequest struct {
	SessionID string         `json:"sessionId"`
	Data      map[string]any `json:"data"`
}

// MemoryFetchRequest is the body of POST /memory/fetch.
type MemoryFetchRequest struct {
	SessionID string `json:"sessionId"`
}

// MemoryFetchResponse carries what the backend remembers about the visitor.
type MemoryFetchResponse struct {
	Profile map[string]any `json:"profile,omitempty"`
}

// CarouselQuery is encoded as the query string of GET /carousel.
type CarouselQuery struct {
	Goal   string
	Age    string
	Habits string
}

// Card is one transformation story of the carousel.
type Card struct {
	Name  string `json:"name,omitempty"`
	Age   string `json:"age,omitempty"`
	Goal  string `json:"goal,omitempty"`
	Image string `json:"image,omitempty"`
	Time  string `json:"time,omitempty"`
	Quote string `json:"quote,omitempty"`
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	Profile map[string]any `json:"profile"`
	Goal    string         `json:"goal"`
	Habits  map[string]any `json:"habits"`
	WhyNow  string         `json:"whyNow"`
}

// Recommendation is the synthesized plan. Both fields are optional.
type Recommendation struct {
	Summary string `json:"summary,omitempty"`
	Plan    string `json:"plan,omitempty"`
}
