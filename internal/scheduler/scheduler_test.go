package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/asoares/lull/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeScheduleSource struct {
	mu        sync.Mutex
	schedules []model.DowntimeSchedule
	err       error
}

func (f *fakeScheduleSource) FindActive(ctx context.Context) ([]model.DowntimeSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.schedules, nil
}

type fakeLocker struct {
	mu       sync.Mutex
	held     map[primitive.ObjectID]string
	denyAll  bool
	released int64
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[primitive.ObjectID]string)}
}

func (f *fakeLocker) AcquireLock(ctx context.Context, scheduleID primitive.ObjectID, owner string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyAll {
		return false, nil
	}
	if _, exists := f.held[scheduleID]; exists {
		return false, nil
	}
	f.held[scheduleID] = owner
	return true, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, scheduleID primitive.ObjectID, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, scheduleID)
	atomic.AddInt64(&f.released, 1)
	return nil
}

func (f *fakeLocker) ReleaseAllLocks(ctx context.Context, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, o := range f.held {
		if o == owner {
			delete(f.held, id)
		}
	}
	return nil
}

func (f *fakeLocker) CleanExpiredLocks(ctx context.Context) (int64, error) {
	return 0, nil
}

func testSchedules(n int) []model.DowntimeSchedule {
	schedules := make([]model.DowntimeSchedule, n)
	for i := range schedules {
		schedules[i] = model.DowntimeSchedule{
			ID:      primitive.NewObjectID(),
			Name:    "h1!maint" + string(rune('a'+i)),
			Enabled: true,
		}
	}
	return schedules
}

func newTestScheduler(source ScheduleSource, locks Locker, reconcile ReconcileFunc) *Scheduler {
	s := New(source, locks, reconcile, nil, Options{
		Enabled:     true,
		LockTTL:     5 * time.Minute,
		Concurrency: 4,
	})
	s.interval = 20 * time.Millisecond
	return s
}

func TestScheduler_ReconcilesAllActiveSchedules(t *testing.T) {
	schedules := testSchedules(3)
	source := &fakeScheduleSource{schedules: schedules}
	locks := newFakeLocker()

	var mu sync.Mutex
	seen := make(map[string]int)
	reconcile := func(ctx context.Context, scheduleID, correlationID string) error {
		mu.Lock()
		defer mu.Unlock()
		seen[scheduleID]++
		return nil
	}

	s := newTestScheduler(source, locks, reconcile)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, 2*time.Second, 10*time.Millisecond, "every active schedule should be reconciled")

	mu.Lock()
	defer mu.Unlock()
	for _, schedule := range schedules {
		assert.Greater(t, seen[schedule.ID.Hex()], 0)
	}
}

func TestScheduler_FailureIsolation(t *testing.T) {
	schedules := testSchedules(3)
	source := &fakeScheduleSource{schedules: schedules}
	locks := newFakeLocker()
	failingID := schedules[0].ID.Hex()

	var mu sync.Mutex
	seen := make(map[string]int)
	reconcile := func(ctx context.Context, scheduleID, correlationID string) error {
		mu.Lock()
		seen[scheduleID]++
		mu.Unlock()
		if scheduleID == failingID {
			return errors.New("boom")
		}
		return nil
	}

	s := newTestScheduler(source, locks, reconcile)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	// The failing schedule never prevents the others, and keeps being retried
	// on subsequent ticks.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen[schedules[1].ID.Hex()] >= 2 && seen[schedules[2].ID.Hex()] >= 2 && seen[failingID] >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestScheduler_SkipsLockedSchedules(t *testing.T) {
	schedules := testSchedules(1)
	source := &fakeScheduleSource{schedules: schedules}
	locks := newFakeLocker()
	locks.denyAll = true

	var count int64
	reconcile := func(ctx context.Context, scheduleID, correlationID string) error {
		atomic.AddInt64(&count, 1)
		return nil
	}

	s := newTestScheduler(source, locks, reconcile)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	assert.Never(t, func() bool {
		return atomic.LoadInt64(&count) > 0
	}, 200*time.Millisecond, 10*time.Millisecond, "locked schedules must not be reconciled")
}

func TestScheduler_ReleasesLockAfterReconcile(t *testing.T) {
	schedules := testSchedules(1)
	source := &fakeScheduleSource{schedules: schedules}
	locks := newFakeLocker()

	reconcile := func(ctx context.Context, scheduleID, correlationID string) error {
		return nil
	}

	s := newTestScheduler(source, locks, reconcile)
	s.Start(context.Background())
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&locks.released) >= 2
	}, 2*time.Second, 10*time.Millisecond, "locks should be released so later ticks can re-acquire")
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	source := &fakeScheduleSource{schedules: testSchedules(1)}
	locks := newFakeLocker()

	var count int64
	reconcile := func(ctx context.Context, scheduleID, correlationID string) error {
		atomic.AddInt64(&count, 1)
		return nil
	}

	s := newTestScheduler(source, locks, reconcile)
	s.Start(context.Background())
	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&count) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// With a single timer and the lock released after each run, roughly one
	// reconcile per tick; three timers would triple that.
	time.Sleep(200 * time.Millisecond)
	ticks := atomic.LoadInt64(&count)
	assert.LessOrEqual(t, ticks, int64(15), "duplicate Start calls must not spawn extra timers")
}

func TestScheduler_DisabledDoesNothing(t *testing.T) {
	source := &fakeScheduleSource{schedules: testSchedules(1)}
	locks := newFakeLocker()

	var count int64
	reconcile := func(ctx context.Context, scheduleID, correlationID string) error {
		atomic.AddInt64(&count, 1)
		return nil
	}

	s := New(source, locks, reconcile, nil, Options{Enabled: false})
	s.interval = 20 * time.Millisecond
	s.Start(context.Background())
	defer s.Stop(context.Background())

	assert.Never(t, func() bool {
		return atomic.LoadInt64(&count) > 0
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestScheduler_StopWaitsForInflight(t *testing.T) {
	source := &fakeScheduleSource{schedules: testSchedules(1)}
	locks := newFakeLocker()

	var started, finished int64
	reconcile := func(ctx context.Context, scheduleID, correlationID string) error {
		atomic.AddInt64(&started, 1)
		time.Sleep(100 * time.Millisecond)
		atomic.AddInt64(&finished, 1)
		return nil
	}

	s := newTestScheduler(source, locks, reconcile)
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&started) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Stop(ctx)

	assert.Equal(t, atomic.LoadInt64(&started), atomic.LoadInt64(&finished),
		"graceful stop should wait for in-flight reconciles")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.held, "all locks should be released on shutdown")
}

func TestScheduler_Owner(t *testing.T) {
	s := newTestScheduler(&fakeScheduleSource{}, newFakeLocker(), nil)
	assert.NotEmpty(t, s.Owner())
}
