package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"riseup/internal/config"
	"riseup/internal/domain"
	"riseup/internal/service"
)

func fastStreamer(repo *MockDonationRepository) *service.StatusStreamer {
	return service.NewStatusStreamer(repo, config.StreamConfig{
		PollInterval:      5 * time.Millisecond,
		HeartbeatInterval: time.Hour,
		DefaultTimeout:    time.Second,
		MinTimeout:        50 * time.Millisecond,
		MaxTimeout:        2 * time.Second,
	})
}

func collectEvents(t *testing.T, events <-chan service.StreamEvent, limit time.Duration) []service.StreamEvent {
	t.Helper()
	var collected []service.StreamEvent
	deadline := time.After(limit)
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return collected
			}
			collected = append(collected, event)
		case <-deadline:
			t.Fatalf("stream did not close within %v; got %d events", limit, len(collected))
		}
	}
}

func TestStream_TerminalTransitionEmitsStatusThenEnd(t *testing.T) {
	repo := NewMockDonationRepository()
	donation := pendingDonation("don-1", "DON-ABC123")
	repo.AddDonation(donation)
	streamer := fastStreamer(repo)

	events := streamer.Stream(context.Background(), "don-1", time.Second)

	// Flip the donation to failed while the client is connected.
	go func() {
		time.Sleep(20 * time.Millisecond)
		failed := *donation
		failed.Status = domain.DonationStatusFailed
		failed.FailedReason = "insufficient funds"
		repo.AddDonation(&failed)
	}()

	collected := collectEvents(t, events, time.Second)

	var statusEvents, endEvents int
	var lastStatus *service.StatusSnapshot
	for _, event := range collected {
		switch event.Name {
		case service.StreamEventStatus:
			statusEvents++
			lastStatus = event.Data.(*service.StatusSnapshot)
		case service.StreamEventEnd:
			endEvents++
		}
	}

	if statusEvents != 1 {
		t.Errorf("expected exactly one status event, got %d", statusEvents)
	}
	if lastStatus == nil || lastStatus.Status != "failed" {
		t.Errorf("expected failed status event, got %+v", lastStatus)
	}
	if endEvents != 1 {
		t.Errorf("expected exactly one end event, got %d", endEvents)
	}
	if collected[len(collected)-1].Name != service.StreamEventEnd {
		t.Errorf("expected end to be the final event, got %s", collected[len(collected)-1].Name)
	}
}

func TestStream_AlreadyTerminalEmitsFinalStatus(t *testing.T) {
	repo := NewMockDonationRepository()
	donation := pendingDonation("don-1", "DON-ABC123")
	now := time.Now().UTC()
	donation.Status = domain.DonationStatusCompleted
	donation.CompletedAt = &now
	repo.AddDonation(donation)
	streamer := fastStreamer(repo)

	events := streamer.Stream(context.Background(), "don-1", time.Second)
	collected := collectEvents(t, events, time.Second)

	if len(collected) != 2 {
		t.Fatalf("expected status + end, got %d events", len(collected))
	}
	if collected[0].Name != service.StreamEventStatus {
		t.Errorf("expected status first, got %s", collected[0].Name)
	}
	if collected[1].Name != service.StreamEventEnd {
		t.Errorf("expected end last, got %s", collected[1].Name)
	}
}

func TestStream_TimeoutEndsStream(t *testing.T) {
	repo := NewMockDonationRepository()
	repo.AddDonation(pendingDonation("don-1", "DON-ABC123"))
	streamer := fastStreamer(repo)

	events := streamer.Stream(context.Background(), "don-1", 50*time.Millisecond)
	collected := collectEvents(t, events, time.Second)

	if len(collected) == 0 {
		t.Fatal("expected at least the end event")
	}
	last := collected[len(collected)-1]
	if last.Name != service.StreamEventEnd {
		t.Fatalf("expected end event, got %s", last.Name)
	}
	if reason := last.Data.(map[string]string)["reason"]; reason != "timeout" {
		t.Errorf("expected timeout reason, got %s", reason)
	}
}

func TestStream_MissingDonationEmitsErrorThenEnd(t *testing.T) {
	repo := NewMockDonationRepository()
	streamer := fastStreamer(repo)

	events := streamer.Stream(context.Background(), "gone", time.Second)
	collected := collectEvents(t, events, time.Second)

	if len(collected) != 2 {
		t.Fatalf("expected error + end, got %d events", len(collected))
	}
	if collected[0].Name != service.StreamEventError {
		t.Errorf("expected error first, got %s", collected[0].Name)
	}
	if detail := collected[0].Data.(map[string]string)["detail"]; detail != "donation not found" {
		t.Errorf("expected not-found detail, got %q", detail)
	}
	if collected[1].Name != service.StreamEventEnd {
		t.Errorf("expected end last, got %s", collected[1].Name)
	}
}

func TestStream_LookupFailureReportedDistinctly(t *testing.T) {
	repo := NewMockDonationRepository()
	repo.AddDonation(pendingDonation("don-1", "DON-ABC123"))
	repo.GetError = errors.New("connection reset")
	streamer := fastStreamer(repo)

	events := streamer.Stream(context.Background(), "don-1", time.Second)
	collected := collectEvents(t, events, time.Second)

	if len(collected) != 2 {
		t.Fatalf("expected error + end, got %d events", len(collected))
	}
	if collected[0].Name != service.StreamEventError {
		t.Errorf("expected error first, got %s", collected[0].Name)
	}
	if detail := collected[0].Data.(map[string]string)["detail"]; detail != "donation lookup failed" {
		t.Errorf("transient failure must not read as not-found, got %q", detail)
	}
}

func TestStream_RowDisappearingMidStream(t *testing.T) {
	repo := NewMockDonationRepository()
	repo.AddDonation(pendingDonation("don-1", "DON-ABC123"))
	streamer := fastStreamer(repo)

	events := streamer.Stream(context.Background(), "don-1", time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		repo.RemoveDonation("don-1")
	}()

	collected := collectEvents(t, events, time.Second)

	var sawError bool
	for _, event := range collected {
		if event.Name == service.StreamEventError {
			sawError = true
		}
	}
	if !sawError {
		t.Error("expected an error event after the row disappeared")
	}
	if collected[len(collected)-1].Name != service.StreamEventEnd {
		t.Errorf("expected end last, got %s", collected[len(collected)-1].Name)
	}
}

func TestStream_ClientDisconnectStopsLoop(t *testing.T) {
	repo := NewMockDonationRepository()
	repo.AddDonation(pendingDonation("don-1", "DON-ABC123"))
	streamer := fastStreamer(repo)

	ctx, cancel := context.WithCancel(context.Background())
	events := streamer.Stream(ctx, "don-1", time.Second)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(time.Second):
		t.Fatal("stream did not close after cancellation")
	}
}

func TestClampTimeout(t *testing.T) {
	streamer := service.NewStatusStreamer(NewMockDonationRepository(), config.StreamConfig{})

	cases := []struct {
		requested time.Duration
		expected  time.Duration
	}{
		{0, 60 * time.Second},
		{5 * time.Second, 15 * time.Second},
		{20 * time.Second, 20 * time.Second},
		{600 * time.Second, 300 * time.Second},
	}

	for _, tc := range cases {
		if got := streamer.ClampTimeout(tc.requested); got != tc.expected {
			t.Errorf("ClampTimeout(%v) = %v, expected %v", tc.requested, got, tc.expected)
		}
	}
}
