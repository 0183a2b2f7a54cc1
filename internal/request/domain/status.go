package domain

// RequestStatus tracks a request through its mostly linear lifecycle.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusQuoted    RequestStatus = "quoted"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusScheduled RequestStatus = "scheduled"
	RequestStatusShopping  RequestStatus = "shopping"
	RequestStatusFound     RequestStatus = "found"
	RequestStatusInvoiced  RequestStatus = "invoiced"
	RequestStatusPaid      RequestStatus = "paid"
	RequestStatusShipped   RequestStatus = "shipped"
	RequestStatusDelivered RequestStatus = "delivered"
)

// statusOrder drives progress rendering: a status is completed when its
// position is below the current one.
var statusOrder = []RequestStatus{
	RequestStatusPending,
	RequestStatusQuoted,
	RequestStatusApproved,
	RequestStatusScheduled,
	RequestStatusShopping,
	RequestStatusFound,
	RequestStatusInvoiced,
	RequestStatusPaid,
	RequestStatusShipped,
	RequestStatusDelivered,
}

// Position returns the ordinal of a status in the lifecycle, or -1 for an
// unknown status.
func (s RequestStatus) Position() int {
	for i, status := range statusOrder {
		if status == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the status is a known lifecycle state.
func (s RequestStatus) Valid() bool { return s.Position() >= 0 }

// requestTransitions is the legal transition table. The lifecycle is linear
// except that approval may skip the quote step and trip unassignment moves a
// scheduled request back to approved.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:   {RequestStatusQuoted, RequestStatusApproved},
	RequestStatusQuoted:    {RequestStatusApproved},
	RequestStatusApproved:  {RequestStatusScheduled},
	RequestStatusScheduled: {RequestStatusShopping, RequestStatusApproved},
	RequestStatusShopping:  {RequestStatusFound},
	RequestStatusFound:     {RequestStatusInvoiced},
	RequestStatusInvoiced:  {RequestStatusPaid},
	RequestStatusPaid:      {RequestStatusShipped},
	RequestStatusShipped:   {RequestStatusDelivered},
}

// CanTransition reports whether moving from s to next is legal.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ItemStatus tracks a single item during the shopping trip. It does not
// follow a strict order.
type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "pending"
	ItemStatusFound       ItemStatus = "found"
	ItemStatusNotFound    ItemStatus = "not_found"
	ItemStatusSubstituted ItemStatus = "substituted"
)

// Valid reports whether the item status is known.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusFound, ItemStatusNotFound, ItemStatusSubstituted:
		return true
	}
	return false
}

// Billable reports whether an item in this status is included when invoice
// line items are generated from a request.
func (s ItemStatus) Billable() bool {
	return s == ItemStatusFound || s == ItemStatusSubstituted
}
