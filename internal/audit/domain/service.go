package domain

import (
	"context"
	"errors"
)

// Entry is one action to record. Actor fields default to whatever the
// request context carries when left empty.
type Entry struct {
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
	IPAddress  string
	UserAgent  string
}

type Service interface {
	Record(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

var ErrMissingAction = errors.New("missing_audit_action")
