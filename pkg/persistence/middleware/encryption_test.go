package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/persistence/middleware"
	"github.com/aretw0/coach/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, next ports.SessionStore, config middleware.EncryptionConfig) ports.SessionStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(config)
	if err != nil {
		t.Fatal(err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := encrypted(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	original := domain.NewSession("test-session")
	original.StateID = "S3"
	original.Goal = "run a marathon"
	original.Profile["email"] = "dana@example.com"

	if err := secureStore.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlyingStore.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Goal != "" || stored.StateID != "" || len(stored.Profile) != 0 {
		t.Fatalf("Expected an opaque envelope, got %+v", stored)
	}
	if _, ok := stored.Extra[middleware.EnvelopeKey]; !ok {
		t.Fatal("Expected __encrypted__ field in extra")
	}

	loaded, err := secureStore.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Goal != "run a marathon" || loaded.StateID != "S3" {
		t.Errorf("Unexpected decrypted session: %+v", loaded)
	}
	if loaded.Profile["email"] != "dana@example.com" {
		t.Errorf("Expected profile to survive, got %v", loaded.Profile["email"])
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := encrypted(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: oldKey})

	ctx := context.Background()
	session := domain.NewSession("rotation-session")
	session.WhyNow = "encrypted-with-old-key"

	if err := secureStoreOld.Save(ctx, session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := encrypted(t, underlyingStore, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})

	loaded, err := secureStoreNew.Load(ctx, "rotation-session")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.WhyNow != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	loaded.WhyNow = "encrypted-with-new-key"
	if err := secureStoreNew.Save(ctx, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, "rotation-session"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainSession(t *testing.T) {
	underlyingStore := memory.NewStore()
	if err := underlyingStore.Save(context.Background(), domain.NewSession("plain")); err != nil {
		t.Fatal(err)
	}
	secureStore := encrypted(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := secureStore.Load(context.Background(), "plain"); err == nil {
		t.Error("Expected a plain session to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	}); err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}
