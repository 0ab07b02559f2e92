package numbering

import (
	"context"
	"errors"
	"sync"
)

// Allocator is the authoritative counter. The incidents store satisfies it
// with an atomic upsert-and-return inside the database.
type Allocator interface {
	NextNumberSeq(ctx context.Context, category, period string) (int64, error)
}

// ErrAllocationInFlight rejects a second allocation request for the same
// record while one is still outstanding.
var ErrAllocationInFlight = errors.New("allocation already in flight for record")

// Service renders scope-keyed sequence numbers and guards against duplicate
// in-flight requests per record.
type Service struct {
	alloc  Allocator
	format string

	mu       sync.Mutex
	inflight map[string]struct{}
	issued   map[string]struct{}
}

func NewService(alloc Allocator, format string) *Service {
	return &Service{alloc: alloc, format: format, inflight: map[string]struct{}{}, issued: map[string]struct{}{}}
}

// Allocate produces the next rendered number for the scope. recordKey
// identifies the requesting record; concurrent calls for the same key fail
// with ErrAllocationInFlight instead of burning a second counter slot.
func (s *Service) Allocate(ctx context.Context, recordKey string, scope ScopeKey) (string, error) {
	if recordKey != "" {
		s.mu.Lock()
		if _, busy := s.inflight[recordKey]; busy {
			s.mu.Unlock()
			return "", ErrAllocationInFlight
		}
		s.inflight[recordKey] = struct{}{}
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.inflight, recordKey)
			s.mu.Unlock()
		}()
	}

	seq, err := s.alloc.NextNumberSeq(ctx, scope.Category.Code(), scope.Period)
	if err != nil {
		return "", &AllocationError{Scope: scope, Err: err}
	}
	number := Render(s.format, scope, seq)
	s.mu.Lock()
	s.issued[number] = struct{}{}
	s.mu.Unlock()
	return number, nil
}

// Claim consumes an outstanding allocation. It returns true only when the
// number was issued by Allocate and no record has attached it yet, so a
// counter slot handed out before first save is used instead of burned.
func (s *Service) Claim(number string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issued[number]; !ok {
		return false
	}
	delete(s.issued, number)
	return true
}
