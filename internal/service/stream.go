package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"riseup/internal/config"
	"riseup/internal/repository"
)

// Stream event names.
const (
	StreamEventStatus    = "status"
	StreamEventHeartbeat = "heartbeat"
	StreamEventError     = "error"
	StreamEventEnd       = "end"
)

// StreamEvent is a single named event on a donation status stream.
type StreamEvent struct {
	Name string
	Data any
}

// StatusStreamer lets a client follow one donation's status changes over a
// poll-driven event stream bounded by a timeout.
type StatusStreamer struct {
	repo repository.DonationRepository
	cfg  config.StreamConfig
}

// NewStatusStreamer creates a StatusStreamer, filling in default intervals
// for any unset configuration values.
func NewStatusStreamer(repo repository.DonationRepository, cfg config.StreamConfig) *StatusStreamer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 15 * time.Second
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 60 * time.Second
	}
	if cfg.MinTimeout <= 0 {
		cfg.MinTimeout = 15 * time.Second
	}
	if cfg.MaxTimeout <= 0 {
		cfg.MaxTimeout = 300 * time.Second
	}
	return &StatusStreamer{repo: repo, cfg: cfg}
}

// ClampTimeout bounds a client-requested timeout. Zero selects the default.
func (s *StatusStreamer) ClampTimeout(requested time.Duration) time.Duration {
	if requested <= 0 {
		return s.cfg.DefaultTimeout
	}
	if requested < s.cfg.MinTimeout {
		return s.cfg.MinTimeout
	}
	if requested > s.cfg.MaxTimeout {
		return s.cfg.MaxTimeout
	}
	return requested
}

// Stream polls the donation until it reaches a terminal state, the timeout
// elapses or ctx is cancelled. A status event is emitted only when the
// serialized snapshot changes; heartbeats keep the connection alive; exactly
// one end event closes the stream unless the client is already gone.
func (s *StatusStreamer) Stream(ctx context.Context, donationID string, timeout time.Duration) <-chan StreamEvent {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)

		deadline := time.NewTimer(timeout)
		defer deadline.Stop()

		poll := time.NewTicker(s.cfg.PollInterval)
		defer poll.Stop()

		heartbeat := time.NewTicker(s.cfg.HeartbeatInterval)
		defer heartbeat.Stop()

		emit := func(event StreamEvent) bool {
			select {
			case events <- event:
				return true
			case <-ctx.Done():
				return false
			}
		}

		end := func(reason string) {
			emit(StreamEvent{Name: StreamEventEnd, Data: map[string]string{"reason": reason}})
		}

		// The first poll establishes the baseline. A donation that is
		// already terminal gets its final status emitted right away.
		last, done := s.poll(ctx, donationID, "", emit, end)
		if done {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-deadline.C:
				end("timeout")
				return
			case <-heartbeat.C:
				if !emit(StreamEvent{
					Name: StreamEventHeartbeat,
					Data: map[string]string{"ts": time.Now().UTC().Format(time.RFC3339)},
				}) {
					return
				}
			case <-poll.C:
				next, done := s.poll(ctx, donationID, last, emit, end)
				if done {
					return
				}
				last = next
			}
		}
	}()

	return events
}

// poll loads the donation once and emits events as needed. It returns the
// serialized snapshot to compare against on the next round, and whether the
// stream is finished.
func (s *StatusStreamer) poll(
	ctx context.Context,
	donationID string,
	last string,
	emit func(StreamEvent) bool,
	end func(string),
) (string, bool) {
	donation, err := s.repo.GetByID(ctx, donationID)
	if err != nil {
		detail := "donation lookup failed"
		if errors.Is(err, repository.ErrNotFound) {
			detail = "donation not found"
		}
		emit(StreamEvent{
			Name: StreamEventError,
			Data: map[string]string{"detail": detail},
		})
		end("error")
		return last, true
	}

	snapshot := Snapshot(donation)
	serialized, err := json.Marshal(snapshot)
	if err != nil {
		end("error")
		return last, true
	}

	if string(serialized) != last {
		if last != "" || donation.Status.IsTerminal() {
			if !emit(StreamEvent{Name: StreamEventStatus, Data: snapshot}) {
				return last, true
			}
		}
		last = string(serialized)
	}

	if donation.Status.IsTerminal() {
		end(string(donation.Status))
		return last, true
	}

	return last, false
}
