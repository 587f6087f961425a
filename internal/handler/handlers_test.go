package handler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-attendance/internal/attendance"
	"github.com/iliyamo/event-attendance/internal/model"
	"github.com/iliyamo/event-attendance/internal/queue"
	"github.com/iliyamo/event-attendance/internal/repository"
)

// fakeStore backs the handler tests.  It implements attendance.Store
// plus the view interfaces the handlers read from, so a full handler
// to service to store round trip runs without MySQL.  WithTx is
// serialized with a mutex, which satisfies the event-lock contract.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID        uint64
	events        map[uint64]model.Event
	rsvps         map[uint64]*model.RSVP
	blocks        map[string]*model.BlockedRSVP
	cancellations map[uint64]*model.CancelledRSVP
	payments      map[uint64][]*model.Payment
	webhookSeen   map[string]bool
	admins        map[uint64]bool
	users         map[uint64]model.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:        make(map[uint64]model.Event),
		rsvps:         make(map[uint64]*model.RSVP),
		blocks:        make(map[string]*model.BlockedRSVP),
		cancellations: make(map[uint64]*model.CancelledRSVP),
		payments:      make(map[uint64][]*model.Payment),
		webhookSeen:   make(map[string]bool),
		admins:        make(map[uint64]bool),
		users:         make(map[uint64]model.User),
	}
}

func pairKey(eventID, userID uint64) string { return fmt.Sprintf("%d:%d", eventID, userID) }

func (s *fakeStore) id() uint64 { s.nextID++; return s.nextID }

func (s *fakeStore) addEvent(ev model.Event) model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.id()
	s.events[ev.ID] = ev
	return ev
}

func (s *fakeStore) addUser(name, email string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = model.User{ID: id, Email: email, DisplayName: name, Role: "ATTENDEE", IsActive: true}
	return id
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}

func (s *fakeStore) GetEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return model.Event{}, attendance.ErrEventNotFound
	}
	return ev, nil
}

func (s *fakeStore) LockEvent(ctx context.Context, eventID uint64) (model.Event, error) {
	return s.GetEvent(ctx, eventID)
}

func (s *fakeStore) CountRSVPs(ctx context.Context, eventID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.rsvps {
		if r.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) GetRSVP(ctx context.Context, eventID, userID uint64) (*model.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rsvps {
		if r.EventID == eventID && r.UserID == userID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetRSVPByID(ctx context.Context, rsvpID uint64) (*model.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rsvps[rsvpID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) CreateRSVP(ctx context.Context, r *model.RSVP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rsvps {
		if existing.EventID == r.EventID && existing.UserID == r.UserID {
			return attendance.ErrAlreadyReserved
		}
	}
	r.ID = s.id()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	cp := *r
	s.rsvps[r.ID] = &cp
	return nil
}

func (s *fakeStore) DeleteRSVP(ctx context.Context, rsvpID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rsvps, rsvpID)
	return nil
}

func (s *fakeStore) SetRSVPPaid(ctx context.Context, rsvpID uint64, paymentIntentID string, amountCents int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rsvps[rsvpID]
	if !ok {
		return nil
	}
	st := model.PaymentStatusPaid
	r.PaymentStatus = &st
	r.PaymentIntentID = &paymentIntentID
	r.AmountPaidCents = &amountCents
	return nil
}

func (s *fakeStore) SetRSVPPaymentFailed(ctx context.Context, rsvpID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rsvps[rsvpID]; ok {
		st := model.PaymentStatusFailed
		r.PaymentStatus = &st
	}
	return nil
}

func (s *fakeStore) ListPendingRSVPsBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.RSVP
	for _, r := range s.rsvps {
		if r.PaymentStatus != nil && *r.PaymentStatus == model.PaymentStatusPending && r.CreatedAt.Before(cutoff) {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) IsBlocked(ctx context.Context, eventID, userID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocks[pairKey(eventID, userID)]
	return ok, nil
}

func (s *fakeStore) CreateBlock(ctx context.Context, b *model.BlockedRSVP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(b.EventID, b.UserID)
	if _, ok := s.blocks[key]; ok {
		return attendance.ErrAlreadyBlocked
	}
	b.ID = s.id()
	if b.BlockedAt.IsZero() {
		b.BlockedAt = time.Now().UTC()
	}
	cp := *b
	s.blocks[key] = &cp
	return nil
}

func (s *fakeStore) DeleteBlock(ctx context.Context, eventID, userID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey(eventID, userID)
	if _, ok := s.blocks[key]; !ok {
		return false, nil
	}
	delete(s.blocks, key)
	return true, nil
}

func (s *fakeStore) CreateCancellation(ctx context.Context, c *model.CancelledRSVP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	if c.CancelledAt.IsZero() {
		c.CancelledAt = time.Now().UTC()
	}
	cp := *c
	s.cancellations[c.ID] = &cp
	return nil
}

func (s *fakeStore) GetCancellation(ctx context.Context, id uint64) (*model.CancelledRSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cancellations[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *fakeStore) GetCancellationForUpdate(ctx context.Context, id uint64) (*model.CancelledRSVP, error) {
	return s.GetCancellation(ctx, id)
}

func (s *fakeStore) SetRefundResult(ctx context.Context, id uint64, status string, refundID *string, refundedAt *time.Time, refundedBy *uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cancellations[id]
	if !ok {
		return attendance.ErrCancellationNotFound
	}
	c.RefundStatus = &status
	c.RefundID = refundID
	c.RefundedAt = refundedAt
	c.RefundedByID = refundedBy
	return nil
}

func (s *fakeStore) CreatePayment(ctx context.Context, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	cp := *p
	s.payments[p.RSVPID] = append(s.payments[p.RSVPID], &cp)
	return nil
}

func (s *fakeStore) DeletePaymentsForRSVP(ctx context.Context, rsvpID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.payments, rsvpID)
	return nil
}

func (s *fakeStore) InsertWebhookEvent(ctx context.Context, gatewayEventID, eventType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.webhookSeen[gatewayEventID] {
		return false, nil
	}
	s.webhookSeen[gatewayEventID] = true
	return true, nil
}

func (s *fakeStore) IsAdmin(ctx context.Context, userID uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admins[userID], nil
}

func (s *fakeStore) userName(id uint64) (name, email string) {
	if u, ok := s.users[id]; ok {
		return u.DisplayName, u.Email
	}
	return fmt.Sprintf("user-%d", id), fmt.Sprintf("user-%d@example.com", id)
}

func (s *fakeStore) ListAttendees(ctx context.Context, eventID uint64, search string, limit, offset int) ([]repository.AttendeeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.AttendeeRow
	for _, r := range s.rsvps {
		if r.EventID != eventID {
			continue
		}
		name, email := s.userName(r.UserID)
		out = append(out, repository.AttendeeRow{
			RSVPID:          r.ID,
			UserID:          r.UserID,
			DisplayName:     name,
			Email:           email,
			PaymentStatus:   r.PaymentStatus,
			AmountPaidCents: r.AmountPaidCents,
			ReservedAt:      r.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReservedAt.Before(out[j].ReservedAt) })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) ListBlocked(ctx context.Context, eventID uint64) ([]repository.BlockedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.BlockedRow
	for _, b := range s.blocks {
		if b.EventID != eventID {
			continue
		}
		name, email := s.userName(b.UserID)
		out = append(out, repository.BlockedRow{
			UserID:      b.UserID,
			DisplayName: name,
			Email:       email,
			BlockedByID: b.BlockedByID,
			BlockedAt:   b.BlockedAt,
		})
	}
	return out, nil
}

func (s *fakeStore) ListCancellations(ctx context.Context, eventID uint64) ([]repository.CancellationRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.CancellationRow
	for _, c := range s.cancellations {
		if c.EventID != eventID {
			continue
		}
		name, _ := s.userName(c.UserID)
		out = append(out, repository.CancellationRow{
			ID:              c.ID,
			UserID:          c.UserID,
			DisplayName:     name,
			CancelledAt:     c.CancelledAt,
			InitiatedBy:     c.InitiatedBy,
			PaymentStatus:   c.PaymentStatus,
			AmountPaidCents: c.AmountPaidCents,
			RefundStatus:    c.RefundStatus,
			RefundedAt:      c.RefundedAt,
		})
	}
	return out, nil
}

func (s *fakeStore) ListMyRSVPs(ctx context.Context, userID uint64) ([]repository.MyRSVPRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.MyRSVPRow
	for _, r := range s.rsvps {
		if r.UserID != userID {
			continue
		}
		ev := s.events[r.EventID]
		out = append(out, repository.MyRSVPRow{
			RSVPID:          r.ID,
			EventID:         r.EventID,
			EventTitle:      ev.Title,
			StartsAt:        ev.StartsAt,
			PaymentStatus:   r.PaymentStatus,
			AmountPaidCents: r.AmountPaidCents,
			ReservedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

// recordingPublisher captures published events instead of dialing a broker.
type recordingPublisher struct {
	mu        sync.Mutex
	confirmed []queue.AttendanceConfirmedEvent
	cancelled []queue.AttendanceCancelledEvent
	refunded  []queue.PaymentRefundedEvent
}

func (p *recordingPublisher) AttendanceConfirmed(ctx context.Context, ev queue.AttendanceConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, ev)
	return nil
}

func (p *recordingPublisher) AttendanceCancelled(ctx context.Context, ev queue.AttendanceCancelledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, ev)
	return nil
}

func (p *recordingPublisher) PaymentRefunded(ctx context.Context, ev queue.PaymentRefundedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunded = append(p.refunded, ev)
	return nil
}

// fakeGateway satisfies both gateway interfaces without talking to Stripe.
type fakeGateway struct {
	refundErr   error
	refundCalls int
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, p attendance.CheckoutParams) (string, error) {
	return fmt.Sprintf("https://pay.example.com/c/%d?amount=%d", p.RSVPID, p.AmountCents), nil
}

func (g *fakeGateway) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error) {
	g.refundCalls++
	if g.refundErr != nil {
		return "", g.refundErr
	}
	return "re_" + uuid.NewString(), nil
}

func uint32p(v uint32) *uint32 { return &v }
func int64p(v int64) *int64    { return &v }

func paidEvent(organiserID uint64, capacity *uint32, priceCents int64) model.Event {
	return model.Event{
		Title:           "Launch Night",
		OrganiserID:     organiserID,
		Capacity:        capacity,
		PriceCents:      int64p(priceCents),
		RequiresPayment: true,
	}
}

func freeEvent(organiserID uint64, capacity *uint32) model.Event {
	return model.Event{Title: "Community Meetup", OrganiserID: organiserID, Capacity: capacity}
}
