package metadata

import (
	"time"

	"github.com/google/uuid"

	"github.com/adfharrison1/go-docpipe/pkg/domain"
)

// Service generates item identity and audit fields. It has no side effects
// and performs no uniqueness check against any store.
type Service struct {
	now    func() time.Time
	newPID func() string
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPIDGenerator overrides pid generation
func WithPIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newPID = gen
	}
}

// NewService returns a Service using UUID v4 pids and the wall clock
func NewService(opts ...Option) *Service {
	s := &Service{
		now:    time.Now,
		newPID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current instant in UTC at millisecond resolution, the
// precision document stores keep.
func (s *Service) Now() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Creation returns {pid, created_at, updated_at, created_by?}. Both
// timestamps are the same instant.
func (s *Service) Creation(actor string) domain.Document {
	now := s.Now()
	meta := domain.Document{
		domain.FieldPID:       s.newPID(),
		domain.FieldCreatedAt: now,
		domain.FieldUpdatedAt: now,
	}
	if actor != "" {
		meta[domain.FieldCreatedBy] = actor
	}
	return meta
}

// Update returns {updated_at, updated_by?}
func (s *Service) Update(actor string) domain.Document {
	meta := domain.Document{
		domain.FieldUpdatedAt: s.Now(),
	}
	if actor != "" {
		meta[domain.FieldUpdatedBy] = actor
	}
	return meta
}
