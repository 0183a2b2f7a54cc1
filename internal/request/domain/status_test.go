package domain

import "testing"

func TestRequestStatusPositions(t *testing.T) {
	if RequestStatusPending.Position() != 0 {
		t.Fatalf("pending should be first, got %d", RequestStatusPending.Position())
	}
	if RequestStatusDelivered.Position() != 9 {
		t.Fatalf("delivered should be last, got %d", RequestStatusDelivered.Position())
	}
	if RequestStatus("bogus").Position() != -1 {
		t.Fatalf("unknown status should have position -1")
	}
}

func TestRequestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to RequestStatus }{
		{RequestStatusPending, RequestStatusQuoted},
		{RequestStatusPending, RequestStatusApproved},
		{RequestStatusQuoted, RequestStatusApproved},
		{RequestStatusApproved, RequestStatusScheduled},
		{RequestStatusScheduled, RequestStatusShopping},
		{RequestStatusScheduled, RequestStatusApproved},
		{RequestStatusShopping, RequestStatusFound},
		{RequestStatusFound, RequestStatusInvoiced},
		{RequestStatusInvoiced, RequestStatusPaid},
		{RequestStatusPaid, RequestStatusShipped},
		{RequestStatusShipped, RequestStatusDelivered},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to RequestStatus }{
		{RequestStatusPending, RequestStatusShopping},
		{RequestStatusFound, RequestStatusPaid},
		{RequestStatusDelivered, RequestStatusPending},
		{RequestStatusApproved, RequestStatusQuoted},
		{RequestStatusShopping, RequestStatusScheduled},
	}
	for _, tc := range denied {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestItemStatusBillable(t *testing.T) {
	if !ItemStatusFound.Billable() || !ItemStatusSubstituted.Billable() {
		t.Fatalf("found and substituted items must be billable")
	}
	if ItemStatusPending.Billable() || ItemStatusNotFound.Billable() {
		t.Fatalf("pending and not_found items must not be billable")
	}
}
