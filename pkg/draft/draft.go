package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"insight-memory/pkg/clock"
	"insight-memory/pkg/docstore"
)

var (
	// ErrNotFound signals that no draft exists for the period and kind.
	ErrNotFound = errors.New("draft: not found")
	// ErrInvalidStatus rejects status values outside the lifecycle.
	ErrInvalidStatus = errors.New("draft: invalid status")
	// ErrInvalidKey rejects malformed period keys or kinds.
	ErrInvalidKey = errors.New("draft: invalid period key or kind")
)

// Kind distinguishes daily briefs from weekly reports.
type Kind string

const (
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindDaily || k == KindWeekly
}

// Status is the publish state of a draft: pending_review → approved → sent.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusApproved      Status = "approved"
	StatusSent          Status = "sent"
)

// Valid reports whether s is a lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingReview, StatusApproved, StatusSent:
		return true
	}
	return false
}

// Locked reports whether a draft in state s must not be regenerated.
func (s Status) Locked() bool {
	return s == StatusApproved || s == StatusSent
}

// Draft is the persisted envelope: typed lifecycle fields plus an opaque payload.
type Draft struct {
	PeriodKey string          `json:"period_key"`
	Kind      Kind            `json:"kind"`
	Status    Status          `json:"status"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (d *Draft) Decode(v any) error {
	if len(d.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(d.Payload, v)
}

// SaveOption customises Save.
type SaveOption func(*saveOptions)

type saveOptions struct {
	status Status
}

// WithStatus sets the initial status instead of pending_review.
func WithStatus(s Status) SaveOption {
	return func(o *saveOptions) {
		o.status = s
	}
}

// Store keeps one draft per (period key, kind).
type Store struct {
	docs          *docstore.Store
	clock         *clock.Clock
	retentionDays int
}

// NewStore constructs a draft store. retentionDays <= 0 disables the sweep
// that follows every successful save.
func NewStore(docs *docstore.Store, clk *clock.Clock, retentionDays int) *Store {
	return &Store{docs: docs, clock: clk, retentionDays: retentionDays}
}

// FileName returns the document name for a draft.
func FileName(periodKey string, kind Kind) string {
	return fmt.Sprintf("%s_%s.json", periodKey, kind)
}

func validateKey(periodKey string, kind Kind) error {
	if strings.TrimSpace(periodKey) == "" || strings.ContainsAny(periodKey, `/\`) || !kind.Valid() {
		return fmt.Errorf("%w: %q/%q", ErrInvalidKey, periodKey, kind)
	}
	return nil
}

// Save writes a new pending draft. When a draft for the same period and kind is
// already approved or sent, the existing record is returned unchanged and
// written reports false.
func (s *Store) Save(periodKey string, kind Kind, payload any, opts ...SaveOption) (d *Draft, written bool, err error) {
	if err := validateKey(periodKey, kind); err != nil {
		return nil, false, err
	}
	name := FileName(periodKey, kind)

	existing, err := s.Load(periodKey, kind)
	switch {
	case err == nil && existing.Status.Locked():
		logx.Infof("draft: skipping %s: already %s", name, existing.Status)
		return existing, false, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return nil, false, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("draft: encode payload: %w", err)
	}

	o := saveOptions{status: requestedStatus(raw)}
	for _, opt := range opts {
		opt(&o)
	}
	if o.status == "" {
		o.status = StatusPendingReview
	}
	if !o.status.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidStatus, o.status)
	}

	d = &Draft{
		PeriodKey: periodKey,
		Kind:      kind,
		Status:    o.status,
		CreatedAt: s.clock.Timestamp(),
		Payload:   raw,
	}
	if err := s.docs.Save(name, d); err != nil {
		return nil, false, err
	}
	logx.Infof("draft: saved %s (%s)", name, d.Status)

	if s.retentionDays > 0 {
		if _, err := s.Sweep(s.retentionDays); err != nil {
			logx.Errorf("draft: sweep after save: %v", err)
		}
	}
	return d, true, nil
}

// requestedStatus picks up an explicit "status" field from an object payload.
func requestedStatus(raw json.RawMessage) Status {
	var head struct {
		Status Status `json:"status"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return ""
	}
	return head.Status
}

// Load returns the draft for (periodKey, kind) or ErrNotFound. An unreadable
// file is reported as not found.
func (s *Store) Load(periodKey string, kind Kind) (*Draft, error) {
	if err := validateKey(periodKey, kind); err != nil {
		return nil, err
	}
	name := FileName(periodKey, kind)
	var d Draft
	err := s.docs.Read(name, &d)
	switch {
	case err == nil:
		return &d, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrNotFound
	case errors.Is(err, docstore.ErrInvalidName):
		return nil, err
	default:
		logx.Infof("draft: %s unreadable, treating as absent: %v", name, err)
		return nil, ErrNotFound
	}
}

// UpdateStatus sets the status of an existing draft. Transitions are not
// checked for direction.
func (s *Store) UpdateStatus(periodKey string, kind Kind, status Status) (*Draft, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	d, err := s.Load(periodKey, kind)
	if err != nil {
		return nil, err
	}
	d.Status = status
	d.UpdatedAt = s.clock.Timestamp()
	if err := s.docs.Save(FileName(periodKey, kind), d); err != nil {
		return nil, err
	}
	logx.Infof("draft: %s is now %s", FileName(periodKey, kind), status)
	return d, nil
}

// List returns stored drafts filtered by kind and status; empty filters match
// everything. Results are ordered by file name.
func (s *Store) List(kind Kind, status Status) ([]Draft, error) {
	entries, err := s.docs.List("")
	if err != nil {
		return nil, err
	}
	out := make([]Draft, 0)
	for _, e := range entries {
		periodKey, k, ok := parseFileName(e.Name())
		if e.IsDir() || !ok || (kind != "" && k != kind) {
			continue
		}
		d, err := s.Load(periodKey, k)
		if err != nil {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

// parseFileName splits "<period>_<kind>.json".
func parseFileName(name string) (string, Kind, bool) {
	base, ok := strings.CutSuffix(name, ".json")
	if !ok {
		return "", "", false
	}
	i := strings.LastIndex(base, "_")
	if i <= 0 {
		return "", "", false
	}
	kind := Kind(base[i+1:])
	if !kind.Valid() {
		return "", "", false
	}
	return base[:i], kind, true
}
