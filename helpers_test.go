package msgbus

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// helperMsg is only used on the default registry
type helperMsg struct {
	Marker
	Seq int
}

// multiListener subscribes to two message types with one value
type multiListener struct {
	helpers []helperMsg
	pings   []Ping
}

func (l *multiListener) Receive(_ context.Context, m helperMsg) error {
	l.helpers = append(l.helpers, m)
	return nil
}

type pingSide struct{ l *multiListener }

func (p pingSide) Receive(_ context.Context, m Ping) error {
	p.l.pings = append(p.l.pings, m)
	return nil
}

func TestDefaultRegistryHelpers(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() { ClearAll(ctx) })

	if err := Initialize(ctx, Types(TypeOf[helperMsg]())); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	rec := NewRecorder[helperMsg](nil)
	if err := Subscribe[helperMsg](rec, true); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := Publish(ctx, helperMsg{Seq: 1}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// enable=false unsubscribes
	if err := Subscribe[helperMsg](rec, false); err != nil {
		t.Fatalf("Subscribe(false) failed: %v", err)
	}
	Publish(ctx, helperMsg{Seq: 2})

	if err := Subscribe[helperMsg](rec, true); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := Unsubscribe[helperMsg](rec); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	// second unsubscribe is a no-op
	if err := Unsubscribe[helperMsg](rec); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	Publish(ctx, helperMsg{Seq: 3})

	if diff := cmp.Diff([]helperMsg{{Seq: 1}}, rec.Messages()); diff != "" {
		t.Errorf("deliveries mismatch (-want +got):\n%s", diff)
	}
	if For[helperMsg](Default()).Len() != 0 {
		t.Errorf("expected no subscribers left, got %d", For[helperMsg](Default()).Len())
	}
}

func TestMultiTypeSubscriber(t *testing.T) {
	ctx := context.Background()
	r := TestRegistry()
	l := &multiListener{}

	if err := SubscribeIn[helperMsg](r, l, true); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := SubscribeIn[Ping](r, pingSide{l}, true); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	PublishIn(ctx, r, helperMsg{Seq: 1})
	PublishIn(ctx, r, Ping{ID: 2})
	PublishIn(ctx, r, Ping{ID: 3})

	if len(l.helpers) != 1 || len(l.pings) != 2 {
		t.Fatalf("expected 1 helper and 2 pings, got %d and %d", len(l.helpers), len(l.pings))
	}

	// Unsubscribing from one type leaves the other registration alone
	if err := UnsubscribeIn[Ping](r, pingSide{l}); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if For[Ping](r).Len() != 0 || For[helperMsg](r).Len() != 1 {
		t.Errorf("unexpected subscriber counts: ping=%d helper=%d", For[Ping](r).Len(), For[helperMsg](r).Len())
	}
}

func TestHelpersOnNilRegistry(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder[Ping](nil)

	if err := SubscribeIn[Ping](nil, rec, true); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("expected ErrNilRegistry, got %v", err)
	}
	if err := UnsubscribeIn[Ping](nil, rec); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("expected ErrNilRegistry, got %v", err)
	}
	if err := PublishIn(ctx, nil, Ping{}); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("expected ErrNilRegistry, got %v", err)
	}
}
