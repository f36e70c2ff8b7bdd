package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/nedpals/nfc-dump-converter/converter"
	"github.com/nedpals/nfc-dump-converter/protocol"
)

// mockHandlerFunc is a mock implementation of HandlerFunc for testing
func mockHandlerFunc(ctx context.Context, conn *websocket.Conn, req protocol.WebSocketRequest) error {
	return nil
}

func TestHandlerRegistry_Handle(t *testing.T) {
	registry := NewHandlerRegistry()

	t.Run("register valid handler", func(t *testing.T) {
		if err := registry.Handle("test", mockHandlerFunc); err != nil {
			t.Fatalf("failed to register handler: %v", err)
		}
	})

	t.Run("register nil handler", func(t *testing.T) {
		if err := registry.Handle("nil", nil); err == nil {
			t.Fatal("expected error when registering nil handler")
		}
	})

	t.Run("register handler with empty message type", func(t *testing.T) {
		if err := registry.Handle("", mockHandlerFunc); err == nil {
			t.Fatal("expected error when registering handler with empty message type")
		}
	})

	t.Run("register duplicate handler", func(t *testing.T) {
		if err := registry.Handle("duplicate", mockHandlerFunc); err != nil {
			t.Fatalf("failed to register first handler: %v", err)
		}
		if err := registry.Handle("duplicate", mockHandlerFunc); err == nil {
			t.Fatal("expected error when registering duplicate handler")
		}
	})
}

func TestHandlerRegistry_Get(t *testing.T) {
	registry := NewHandlerRegistry()
	registry.Handle("test", mockHandlerFunc)

	if h, ok := registry.Get("test"); !ok || h == nil {
		t.Fatal("registered handler not found")
	}
	if _, ok := registry.Get("nonexistent"); ok {
		t.Fatal("expected handler not to be found")
	}
}

func TestHandlerRegistry_HandleExecution(t *testing.T) {
	registry := NewHandlerRegistry()
	expectedErr := errors.New("test error")

	var gotID string
	registry.Handle("echo", func(ctx context.Context, conn *websocket.Conn, req protocol.WebSocketRequest) error {
		gotID = req.ID
		return expectedErr
	})

	h, _ := registry.Get("echo")
	err := h(context.Background(), nil, protocol.WebSocketRequest{ID: "req-1"})
	if err != expectedErr {
		t.Fatalf("expected error %v, got %v", expectedErr, err)
	}
	if gotID != "req-1" {
		t.Errorf("handler saw ID %q, want req-1", gotID)
	}
}

func TestHandlerRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewHandlerRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			registry.Handle(fmt.Sprintf("type-%d", i), mockHandlerFunc)
		}(i)
		go func(i int) {
			defer wg.Done()
			registry.Get(fmt.Sprintf("type-%d", i))
			registry.MessageTypes()
		}(i)
	}
	wg.Wait()

	if n := len(registry.MessageTypes()); n != 50 {
		t.Fatalf("expected 50 message types, got %d", n)
	}
}

func TestConvertHandler_Register(t *testing.T) {
	registry := NewHandlerRegistry()
	NewConvertHandler(converter.New(converter.Options{}), nil).Register(registry)

	types := registry.MessageTypes()

	expected := []string{protocol.WSTypeConvertFile, protocol.WSTypeConvertToDump, protocol.WSTypeConvertToNFC}
	sort.Strings(expected)

	if fmt.Sprint(types) != fmt.Sprint(expected) {
		t.Errorf("registered types = %v, want %v", types, expected)
	}
}
