package credgate

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func collectEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, want)
	timeout := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		case <-timeout:
			t.Fatalf("timed out waiting for %d audit events, got %d", want, len(events))
		}
	}
	return events
}

func TestAuditEventsEmitted(t *testing.T) {
	store := newMockStore()
	sink := NewChannelSink(16)

	cfg := testServiceConfig()
	cfg.Audit.Enabled = true

	service, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithAuditSink(sink).
		WithClock(newTestClock().Now).
		Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	defer service.Close()

	ctx := WithClientIP(context.Background(), "10.0.0.1")
	ctx = WithUserAgent(ctx, "test-agent")

	registerTestAccount(t, service, "alice", "alice@example.com", "correct-horse")
	_, _ = service.Login(ctx, "alice@example.com", "wrong-horse")
	_, _ = service.Login(ctx, "alice@example.com", "correct-horse")

	events := collectEvents(t, sink, 3)

	if events[0].EventType != "register" || !events[0].Success {
		t.Fatalf("unexpected first event: %+v", events[0])
	}

	failure := events[1]
	if failure.EventType != "login_failure" || failure.Success {
		t.Fatalf("unexpected second event: %+v", failure)
	}
	if failure.IP != "10.0.0.1" || failure.UserAgent != "test-agent" {
		t.Fatalf("expected context metadata on event, got %+v", failure)
	}
	if failure.Error == "" {
		t.Fatal("expected error detail on failure event")
	}

	if events[2].EventType != "login_success" || !events[2].Success {
		t.Fatalf("unexpected third event: %+v", events[2])
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	service := newTestService(t, newMockStore(), newTestClock(), nil, nil)

	registerTestAccount(t, service, "alice", "alice@example.com", "correct-horse")

	if service.AuditDropped() != 0 {
		t.Fatal("disabled audit must not drop events")
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{block: block}

	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	// First event occupies the worker, second fills the buffer, the rest drop.
	for i := 0; i < 8; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "login_failure"})
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a full buffer")
	}

	close(block)
	d.Close()
}

type blockingSink struct {
	block chan struct{}
}

func (s blockingSink) Emit(_ context.Context, _ AuditEvent) {
	<-s.block
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EventType: "logout",
		AccountID: "acc-1",
		Success:   true,
	})

	line := strings.TrimSpace(buf.String())
	var decoded AuditEvent
	if err := json.Unmarshal([]byte(line), &decoded); err != nil {
		t.Fatalf("expected one JSON object per line, got %q: %v", line, err)
	}
	if decoded.EventType != "logout" || decoded.AccountID != "acc-1" || !decoded.Success {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
}

func TestDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16, DropIfFull: true}, sink)

	for i := 0; i < 5; i++ {
		d.Emit(context.Background(), AuditEvent{EventType: "logout"})
	}
	d.Close()

	received := 0
	for {
		select {
		case <-sink.Events():
			received++
		default:
			if received != 5 {
				t.Fatalf("expected all 5 events delivered before Close returned, got %d", received)
			}
			return
		}
	}
}
