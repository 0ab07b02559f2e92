package numbering

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-ehs/core/classify"
)

type fakeAllocator struct {
	mu     sync.Mutex
	seqs   map[string]int64
	err    error
	block  chan struct{}
	calls  int
	blocks int
}

func (f *fakeAllocator) NextNumberSeq(_ context.Context, category, period string) (int64, error) {
	if f.block != nil {
		f.mu.Lock()
		f.blocks++
		f.mu.Unlock()
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	if f.seqs == nil {
		f.seqs = map[string]int64{}
	}
	key := category + "|" + period
	f.seqs[key]++
	return f.seqs[key], nil
}

func TestAllocateRendersSequentialNumbers(t *testing.T) {
	svc := NewService(&fakeAllocator{}, DefaultFormat)
	scope := MonthScope(classify.CategoryIncident, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))

	first, err := svc.Allocate(context.Background(), "rec-1", scope)
	require.NoError(t, err)
	second, err := svc.Allocate(context.Background(), "rec-2", scope)
	require.NoError(t, err)

	assert.Equal(t, "2026-08/IS/INC/00001", first)
	assert.Equal(t, "2026-08/IS/INC/00002", second)
}

func TestAllocateIndependentScopes(t *testing.T) {
	svc := NewService(&fakeAllocator{}, "{category}/{seq}")
	ctx := context.Background()
	at := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	inc, err := svc.Allocate(ctx, "a", MonthScope(classify.CategoryIncident, at))
	require.NoError(t, err)
	aud, err := svc.Allocate(ctx, "b", MonthScope(classify.CategoryAudit, at))
	require.NoError(t, err)

	assert.Equal(t, "INC/1", inc)
	assert.Equal(t, "AUD/1", aud, "different scopes keep independent counters")
}

func TestAllocateWrapsFailuresAsAllocationError(t *testing.T) {
	boom := errors.New("storage unavailable")
	svc := NewService(&fakeAllocator{err: boom}, DefaultFormat)
	scope := MonthScope(classify.CategoryIncident, time.Now())

	_, err := svc.Allocate(context.Background(), "rec-1", scope)
	var allocErr *AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, scope, allocErr.Scope)
}

func TestAllocateRejectsConcurrentRequestForSameRecord(t *testing.T) {
	fake := &fakeAllocator{block: make(chan struct{})}
	svc := NewService(fake, DefaultFormat)
	scope := MonthScope(classify.CategoryIncident, time.Now())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Allocate(context.Background(), "rec-1", scope)
		done <- err
	}()

	// Wait for the first call to enter the allocator.
	for {
		fake.mu.Lock()
		entered := fake.blocks > 0
		fake.mu.Unlock()
		if entered {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, err := svc.Allocate(context.Background(), "rec-1", scope)
	assert.ErrorIs(t, err, ErrAllocationInFlight)

	close(fake.block)
	require.NoError(t, <-done)

	// Once resolved, a retry for the same record is allowed again.
	_, err = svc.Allocate(context.Background(), "rec-1", scope)
	assert.NoError(t, err)
}
