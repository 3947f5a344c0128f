package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/tabtidy/internal/cleaner"
	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/report"
)

var _ cleaner.Events = (*Broker)(nil)

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestRunEventsDelivery(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.RunStarted("r1", 3)
	b.LinkRemoved("r1", report.DeletionRecord{Title: "Dead", URL: "https://dead.example", Reason: "HTTP 404", Kind: probe.BadStatus})
	b.RunFinished("r1", report.RunStats{TotalLinks: 3, ValidLinks: 2, RemovedLinks: 1})

	var got []string
	deadline := time.After(time.Second)
	for len(got) < 3 {
		select {
		case msg := <-ch:
			got = append(got, string(msg))
		case <-deadline:
			t.Fatalf("timeout, got %d messages", len(got))
		}
	}

	checks := []struct{ event, data string }{
		{"event: run.started", `"total_links":3`},
		{"event: link.removed", `"kind":"bad_status"`},
		{"event: run.finished", `"removed_links":1`},
	}
	for i, c := range checks {
		if !strings.Contains(got[i], c.event) || !strings.Contains(got[i], c.data) {
			t.Errorf("message %d = %q, want %s with %s", i, got[i], c.event, c.data)
		}
		if !strings.Contains(got[i], `"run_id":"r1"`) {
			t.Errorf("message %d missing run id: %q", i, got[i])
		}
	}
}

func TestProgressThrottle(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for done := 1; done <= 5; done++ {
		b.Progress("r1", done, 5)
	}
	time.Sleep(50 * time.Millisecond)

	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("progress events = %d, want 2 (first and final): %q", len(msgs), msgs)
	}
	if !strings.Contains(msgs[0], `"done":1`) {
		t.Errorf("first = %q", msgs[0])
	}
	if !strings.Contains(msgs[1], `"done":5`) {
		t.Errorf("final = %q", msgs[1])
	}
}

func TestProgressThrottleIsPerRun(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Progress("r1", 1, 10)
	b.Progress("r2", 1, 10)
	time.Sleep(50 * time.Millisecond)

	if n := len(drain(ch)); n != 2 {
		t.Errorf("events = %d, want 2", n)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.RunStarted("r9", 12)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: run.started") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for range 70 {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.RunStarted("r1", 1)
	b.Progress("r1", 1, 1)
}
