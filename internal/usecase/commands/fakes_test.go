//go:build unit

package commands_test

import (
	"context"
	"sync"

	"booking-core/internal/domain/booking"
	"booking-core/internal/usecase/commands"

	"github.com/google/uuid"
)

// fakeGateway records calls and acknowledges unless told to fail.
type fakeGateway struct {
	mu sync.Mutex

	authorizeErr error
	captureErr   error
	refundErr    error
	sessionID    string

	authorizeCalls int
	captureCalls   int
	refundCalls    []refundCall
}

type refundCall struct {
	externalPaymentID string
	amountCents       int64
	reason            string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessionID: "sess_" + uuid.NewString()}
}

func (g *fakeGateway) Authorize(_ context.Context, _ commands.AuthorizeRequest) (*commands.AuthorizeAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authorizeCalls++
	if g.authorizeErr != nil {
		return nil, g.authorizeErr
	}
	return &commands.AuthorizeAck{ExternalSessionID: g.sessionID}, nil
}

func (g *fakeGateway) Capture(_ context.Context, _ string, _ *int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captureCalls++
	return g.captureErr
}

func (g *fakeGateway) Refund(_ context.Context, externalPaymentID string, amountCents int64, reason string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refundCalls = append(g.refundCalls, refundCall{externalPaymentID, amountCents, reason})
	return nil
}

// recordingPublisher captures domain events in order.
type recordingPublisher struct {
	mu        sync.Mutex
	booked    []booking.BookedEvent
	cancelled []booking.CancelledEvent
}

func (p *recordingPublisher) PublishBooked(_ context.Context, ev booking.BookedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.booked = append(p.booked, ev)
	return nil
}

func (p *recordingPublisher) PublishCancelled(_ context.Context, ev booking.CancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, ev)
	return nil
}

func (p *recordingPublisher) bookedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.booked)
}

func (p *recordingPublisher) cancelledCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cancelled)
}
