// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used by the publisher and the background consumer.
const (
	QueueAttendanceConfirmed = "attendance.confirmed"
	QueueAttendanceCancelled = "attendance.cancelled"
	QueuePaymentRefunded     = "payment.refunded"
)

// AttendanceConfirmedEvent is published when a paid reservation is
// confirmed by the payment gateway (or immediately for free events).
// It carries enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type AttendanceConfirmedEvent struct {
	RSVPID      uint64 `json:"rsvp_id"`
	UserID      uint64 `json:"user_id"`
	EventID     uint64 `json:"event_id"`
	EventTitle  string `json:"event_title"`
	AmountCents int64  `json:"amount_cents"`
	ConfirmedAt string `json:"confirmed_at"`
}

// AttendanceCancelledEvent is published whenever a reservation is
// removed, whether by the attendee, the organiser or the system.
type AttendanceCancelledEvent struct {
	RSVPID      uint64 `json:"rsvp_id"`
	UserID      uint64 `json:"user_id"`
	EventID     uint64 `json:"event_id"`
	InitiatedBy string `json:"initiated_by"`
	CancelledAt string `json:"cancelled_at"`
}

// PaymentRefundedEvent is published when a cancelled reservation's
// payment is successfully refunded.
type PaymentRefundedEvent struct {
	CancellationID uint64 `json:"cancellation_id"`
	UserID         uint64 `json:"user_id"`
	EventID        uint64 `json:"event_id"`
	AmountCents    int64  `json:"amount_cents"`
	RefundID       string `json:"refund_id"`
	RefundedAt     string `json:"refunded_at"`
}
