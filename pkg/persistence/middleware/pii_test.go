package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/persistence/middleware"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"email", "phone"})
	if err != nil {
		t.Fatal(err)
	}
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	session := domain.NewSession("pii-session")
	session.Goal = "lose weight"
	session.Profile["name"] = "Dana"
	session.Profile["Email"] = "dana@example.com"
	session.Habits["contact"] = map[string]any{
		"city":         "Lisbon",
		"mobile_phone": "+351 900 000 000",
	}

	if err := secureStore.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if session.Profile["Email"] != "dana@example.com" {
		t.Error("Middleware modified the engine's session!")
	}
	if session.Habits["contact"].(map[string]any)["mobile_phone"] != "+351 900 000 000" {
		t.Error("Middleware modified a nested map of the engine's session!")
	}

	stored, err := underlyingStore.Load(ctx, "pii-session")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Profile["name"] != "Dana" || stored.Goal != "lose weight" {
		t.Error("Unrelated fields shouldn't be masked")
	}
	if stored.Profile["Email"] != middleware.Mask {
		t.Errorf("Email should be masked, got: %v", stored.Profile["Email"])
	}
	contact := stored.Habits["contact"].(map[string]any)
	if contact["mobile_phone"] != middleware.Mask {
		t.Errorf("Nested phone should be masked, got: %v", contact["mobile_phone"])
	}
	if contact["city"] != "Lisbon" {
		t.Errorf("Nested city shouldn't be masked, got: %v", contact["city"])
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected error for invalid pattern")
	}
}

func TestChain_EncryptsMaskedSession(t *testing.T) {
	underlyingStore := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"email"})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if err != nil {
		t.Fatal(err)
	}
	store := middleware.Chain(underlyingStore, pii, enc)

	ctx := context.Background()
	session := domain.NewSession("chained")
	session.Profile["email"] = "dana@example.com"
	if err := store.Save(ctx, session); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(ctx, "chained")
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Profile["email"] != middleware.Mask {
		t.Errorf("Expected masked email after decryption, got %v", loaded.Profile["email"])
	}
}
