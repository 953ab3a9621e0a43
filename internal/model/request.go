package model

import (
	"fmt"
	"time"
)

// RequestStatus is the lifecycle state of a transfer request.
type RequestStatus int

// Request statuses. Pending is the only non-terminal state.
const (
	RequestPending RequestStatus = iota + 1
	RequestApproved
	RequestRejected
)

var requestStatusNames = map[RequestStatus]string{
	RequestPending:  "pending",
	RequestApproved: "approved",
	RequestRejected: "rejected",
}

// ParseRequestStatus parses the wire name of a status.
func ParseRequestStatus(s string) (RequestStatus, error) {
	for st, name := range requestStatusNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown request status %q", s)
}

func (s RequestStatus) String() string {
	if name, ok := requestStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("RequestStatus(%d)", int(s))
}

// Valid reports whether s is one of the defined statuses.
func (s RequestStatus) Valid() bool {
	_, ok := requestStatusNames[s]
	return ok
}

// Terminal reports whether no further transition is allowed from s.
func (s RequestStatus) Terminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// MarshalText encodes the status by name.
func (s RequestStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid request status %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *RequestStatus) UnmarshalText(b []byte) error {
	st, err := ParseRequestStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Request is a user's request to move stock between warehouses. It changes
// no stock until a reviewer approves it.
type Request struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	ItemID          int64         `json:"item_id"`
	Quantity        int           `json:"quantity"`
	FromWarehouseID int64         `json:"from_warehouse_id"`
	ToWarehouseID   int64         `json:"to_warehouse_id"`
	Timestamp       time.Time     `json:"timestamp"`
	Status          RequestStatus `json:"status"`
	DecidedAt       *time.Time    `json:"decided_at,omitempty"`
	DecidedBy       *int64        `json:"decided_by,omitempty"`

	// Joined fields (not always populated).
	Username string `json:"username,omitempty"`
	ItemName string `json:"item_name,omitempty"`
}

// RequestFilter narrows request listings. Zero values match everything.
type RequestFilter struct {
	Status RequestStatus
	UserID int64
}
