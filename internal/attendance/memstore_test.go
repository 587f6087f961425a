package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iliyamo/event-attendance/internal/model"
)

// memStore is an in-memory Store used by the service tests.  WithTx
// serialises transactions with a single mutex, which satisfies the
// LockEvent contract (all capacity mutations for an event are
// serialised) while keeping read-only calls outside transactions
// cheap.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID        uint64
	events        map[uint64]model.Event
	rsvps         map[uint64]*model.RSVP
	blocks        map[string]*model.BlockedRSVP
	cancellations map[uint64]*model.CancelledRSVP
	payments      map[uint64]*model.Payment
	webhookSeen   map[string]bool
	admins        map[uint64]bool
}

func newMemStore() *memStore {
	return &memStore{
		events:        make(map[uint64]model.Event),
		rsvps:         make(map[uint64]*model.RSVP),
		blocks:        make(map[string]*model.BlockedRSVP),
		cancellations: make(map[uint64]*model.CancelledRSVP),
		payments:      make(map[uint64]*model.Payment),
		webhookSeen:   make(map[string]bool),
		admins:        make(map[uint64]bool),
	}
}

func pairKey(eventID, userID uint64) string { return fmt.Sprintf("%d:%d", eventID, userID) }

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addEvent(ev model.Event) model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == 0 {
		ev.ID = m.id()
	}
	m.events[ev.ID] = ev
	return ev
}

func (m *memStore) WithTx(_ context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(context.Background())
}

func (m *memStore) GetEvent(_ context.Context, eventID uint64) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[eventID]
	if !ok {
		return model.Event{}, ErrEventNotFound
	}
	return ev, nil
}

func (m *memStore) LockEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	return m.GetEvent(ctx, eventID)
}

func (m *memStore) CountRSVPs(_ context.Context, eventID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rsvps {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetRSVP(_ context.Context, eventID, userID uint64) (*model.RSVP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rsvps {
		if r.EventID == eventID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetRSVPByID(_ context.Context, rsvpID uint64) (*model.RSVP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsvps[rsvpID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) CreateRSVP(_ context.Context, r *model.RSVP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rsvps {
		if existing.EventID == r.EventID && existing.UserID == r.UserID {
			return ErrAlreadyReserved
		}
	}
	r.ID = m.id()
	r.CreatedAt = time.Now().UTC()
	cp := *r
	m.rsvps[r.ID] = &cp
	return nil
}

func (m *memStore) DeleteRSVP(_ context.Context, rsvpID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rsvps, rsvpID)
	return nil
}

func (m *memStore) SetRSVPPaid(_ context.Context, rsvpID uint64, intentID string, amountCents int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsvps[rsvpID]
	if !ok {
		return ErrRSVPNotFound
	}
	st := model.PaymentStatusPaid
	r.PaymentStatus = &st
	r.PaymentIntentID = &intentID
	r.AmountPaidCents = &amountCents
	return nil
}

func (m *memStore) SetRSVPPaymentFailed(_ context.Context, rsvpID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rsvps[rsvpID]
	if !ok {
		return ErrRSVPNotFound
	}
	st := model.PaymentStatusFailed
	r.PaymentStatus = &st
	return nil
}

func (m *memStore) ListPendingRSVPsBefore(_ context.Context, cutoff time.Time, limit int) ([]model.RSVP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.RSVP
	for _, r := range m.rsvps {
		if r.PaymentStatus != nil && *r.PaymentStatus == model.PaymentStatusPending && r.CreatedAt.Before(cutoff) {
			out = append(out, *r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (m *memStore) IsBlocked(_ context.Context, eventID, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blocks[pairKey(eventID, userID)]
	return ok, nil
}

func (m *memStore) CreateBlock(_ context.Context, b *model.BlockedRSVP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(b.EventID, b.UserID)
	if _, ok := m.blocks[key]; ok {
		return ErrAlreadyBlocked
	}
	b.ID = m.id()
	b.BlockedAt = time.Now().UTC()
	cp := *b
	m.blocks[key] = &cp
	return nil
}

func (m *memStore) DeleteBlock(_ context.Context, eventID, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey(eventID, userID)
	if _, ok := m.blocks[key]; !ok {
		return false, nil
	}
	delete(m.blocks, key)
	return true, nil
}

func (m *memStore) CreateCancellation(_ context.Context, c *model.CancelledRSVP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	c.CancelledAt = time.Now().UTC()
	cp := *c
	m.cancellations[c.ID] = &cp
	return nil
}

func (m *memStore) GetCancellationForUpdate(_ context.Context, id uint64) (*model.CancelledRSVP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cancellations[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) SetRefundResult(_ context.Context, id uint64, status string, refundID *string, refundedAt *time.Time, refundedBy *uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cancellations[id]
	if !ok {
		return ErrCancellationNotFound
	}
	c.RefundStatus = &status
	c.RefundID = refundID
	c.RefundedAt = refundedAt
	c.RefundedByID = refundedBy
	return nil
}

func (m *memStore) CreatePayment(_ context.Context, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id()
	p.CreatedAt = time.Now().UTC()
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *memStore) DeletePaymentsForRSVP(_ context.Context, rsvpID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, p := range m.payments {
		if p.RSVPID == rsvpID {
			delete(m.payments, id)
		}
	}
	return nil
}

func (m *memStore) InsertWebhookEvent(_ context.Context, gatewayEventID, _ string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.webhookSeen[gatewayEventID] {
		return false, nil
	}
	m.webhookSeen[gatewayEventID] = true
	return true, nil
}

func (m *memStore) IsAdmin(_ context.Context, userID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.admins[userID], nil
}

// Helpers shared by the service tests.

func (m *memStore) paymentsForRSVP(rsvpID uint64) []model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Payment
	for _, p := range m.payments {
		if p.RSVPID == rsvpID {
			out = append(out, *p)
		}
	}
	return out
}

func (m *memStore) allCancellations() []model.CancelledRSVP {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.CancelledRSVP
	for _, c := range m.cancellations {
		out = append(out, *c)
	}
	return out
}

func uint32p(v uint32) *uint32 { return &v }
func int64p(v int64) *int64    { return &v }

func paidEvent(organiserID uint64, capacity *uint32, priceCents int64) model.Event {
	return model.Event{
		Title:           "Paid Event",
		OrganiserID:     organiserID,
		Capacity:        capacity,
		PriceCents:      int64p(priceCents),
		RequiresPayment: true,
	}
}

func freeEvent(organiserID uint64, capacity *uint32) model.Event {
	return model.Event{
		Title:       "Free Event",
		OrganiserID: organiserID,
		Capacity:    capacity,
	}
}
