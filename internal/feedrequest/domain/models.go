package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrMatchingFeedNotFound = errors.New("matching_feed_not_found")
)

// Status is the lifecycle state of a feed request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusDelivered Status = "delivered"
	StatusRejected  Status = "rejected"
)

// FeedRequest is a farmer's ask for feed, resolved against inventory by
// the matching rules rather than a foreign key. FeedTypeName and
// FeedType both come from the submitting collaborator.
type FeedRequest struct {
	ID           snowflake.ID    `gorm:"primaryKey" json:"id"`
	FarmerID     string          `gorm:"not null;index" json:"farmer_id"`
	FeedTypeName string          `gorm:"not null" json:"feed_type_name"`
	FeedType     string          `gorm:"not null" json:"feed_type"`
	Quantity     decimal.Decimal `gorm:"type:numeric;not null" json:"quantity"`
	Status       Status          `gorm:"not null;index" json:"status"`

	// Cost is recomputed and cached on every transition from the
	// resolved unit price at that moment.
	Cost decimal.Decimal `gorm:"type:numeric;not null" json:"cost"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// transitions lists every permitted (from, to) pair. Rejection always
// routes through approval; delivered and rejected requests can be reset
// to pending to re-enter the machine.
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved},
	StatusApproved:  {StatusDelivered, StatusRejected, StatusPending},
	StatusDelivered: {StatusPending},
	StatusRejected:  {StatusPending},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidStatus(value Status) bool {
	switch value {
	case StatusPending, StatusApproved, StatusDelivered, StatusRejected:
		return true
	default:
		return false
	}
}

// Open reports whether the request still holds or may claim inventory.
func (r *FeedRequest) Open() bool {
	return r.Status == StatusPending || r.Status == StatusApproved
}
