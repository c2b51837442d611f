package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/asoares/lull/internal/model"
	"github.com/asoares/lull/internal/timeperiod"
	"github.com/asoares/lull/internal/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeScheduleStore struct {
	schedules map[primitive.ObjectID]*model.DowntimeSchedule
}

func (f *fakeScheduleStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.DowntimeSchedule, error) {
	schedule, ok := f.schedules[id]
	if !ok {
		return nil, errors.New("schedule not found")
	}
	return schedule, nil
}

type fakeCheckableDirectory struct {
	checkables map[string]*model.Checkable
}

func (f *fakeCheckableDirectory) GetByNames(ctx context.Context, hostName, serviceName string) (*model.Checkable, error) {
	checkable, ok := f.checkables[model.CheckableKey(hostName, serviceName)]
	if !ok {
		return nil, errors.New("checkable not found")
	}
	return checkable, nil
}

type fakeDowntimeStore struct {
	downtimes []model.Downtime
	created   []*model.Downtime
	tagged    map[primitive.ObjectID]string
}

func (f *fakeDowntimeStore) ListForCheckable(ctx context.Context, checkableID primitive.ObjectID) ([]model.Downtime, error) {
	return f.downtimes, nil
}

func (f *fakeDowntimeStore) Create(ctx context.Context, downtime *model.Downtime) (primitive.ObjectID, error) {
	id := primitive.NewObjectID()
	downtime.ID = id
	f.created = append(f.created, downtime)
	return id, nil
}

func (f *fakeDowntimeStore) SetScheduledBy(ctx context.Context, id primitive.ObjectID, scheduleName string) error {
	if f.tagged == nil {
		f.tagged = make(map[primitive.ObjectID]string)
	}
	f.tagged[id] = scheduleName
	return nil
}

type fakeNotifier struct {
	events []webhook.DowntimeEvent
	err    error
}

func (f *fakeNotifier) NotifyDowntimeCreated(ctx context.Context, event webhook.DowntimeEvent) error {
	f.events = append(f.events, event)
	return f.err
}

// reconcilerFixture wires a reconciler against in-memory fakes with a frozen
// clock and a resolver producing a single future window.
type reconcilerFixture struct {
	reconciler *Reconciler
	schedule   *model.DowntimeSchedule
	downtimes  *fakeDowntimeStore
	notifier   *fakeNotifier
	now        time.Time
}

func newReconcilerFixture(t *testing.T, serviceName string) *reconcilerFixture {
	t.Helper()

	now := time.Date(2026, time.September, 2, 12, 0, 0, 0, time.UTC)

	checkable := &model.Checkable{
		ID:          primitive.NewObjectID(),
		HostName:    "h1",
		ServiceName: serviceName,
	}

	schedule := &model.DowntimeSchedule{
		ID:          primitive.NewObjectID(),
		HostName:    "h1",
		ServiceName: serviceName,
		ShortName:   "maint1",
		Ranges:      map[string]string{"friday": "09:00-17:00"},
		Author:      "ops",
		Comment:     "weekly window",
		Fixed:       true,
		Enabled:     true,
	}
	require.NoError(t, schedule.Validate())

	downtimes := &fakeDowntimeStore{}
	notifier := &fakeNotifier{}

	resolver := &fakeResolver{
		segments: map[string]timeperiod.Segment{
			"friday": {
				Begin: time.Date(2026, time.September, 4, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2026, time.September, 4, 17, 0, 0, 0, time.UTC),
			},
		},
	}

	reconciler := NewReconciler(
		&fakeScheduleStore{schedules: map[primitive.ObjectID]*model.DowntimeSchedule{schedule.ID: schedule}},
		&fakeCheckableDirectory{checkables: map[string]*model.Checkable{checkable.Key(): checkable}},
		downtimes,
		NewSegmentFinder(resolver),
		notifier,
	)
	reconciler.now = func() time.Time { return now }

	return &reconcilerFixture{
		reconciler: reconciler,
		schedule:   schedule,
		downtimes:  downtimes,
		notifier:   notifier,
		now:        now,
	}
}

func TestReconciler_CreatesUpcomingDowntime(t *testing.T) {
	f := newReconcilerFixture(t, "")

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	require.Len(t, f.downtimes.created, 1)
	created := f.downtimes.created[0]

	assert.True(t, created.StartTime.After(f.now))
	assert.Equal(t, time.Date(2026, time.September, 4, 9, 0, 0, 0, time.UTC), created.StartTime)
	assert.Equal(t, time.Date(2026, time.September, 4, 17, 0, 0, 0, time.UTC), created.EndTime)
	assert.Equal(t, "ops", created.Author)
	assert.Equal(t, "weekly window", created.Comment)
	assert.True(t, created.Fixed)

	// Ownership tag applied after creation
	assert.Equal(t, "h1!maint1", f.downtimes.tagged[created.ID])
}

func TestReconciler_ServiceScheduleName(t *testing.T) {
	f := newReconcilerFixture(t, "svc1")

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	require.Len(t, f.downtimes.created, 1)
	assert.Equal(t, "h1!svc1!maint1", f.downtimes.tagged[f.downtimes.created[0].ID])
}

func TestReconciler_IdempotentWhileUpcomingExists(t *testing.T) {
	f := newReconcilerFixture(t, "")

	// An upcoming downtime already owned by this schedule
	f.downtimes.downtimes = []model.Downtime{{
		ID:          primitive.NewObjectID(),
		ScheduledBy: "h1!maint1",
		StartTime:   f.now.Add(2 * time.Hour),
		EndTime:     f.now.Add(4 * time.Hour),
	}}

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	assert.Empty(t, f.downtimes.created)
	assert.Empty(t, f.notifier.events)
}

func TestReconciler_StartedDowntimeDoesNotBlock(t *testing.T) {
	f := newReconcilerFixture(t, "")

	// A downtime owned by this schedule that already started does not count
	// as upcoming; a new one is materialized.
	f.downtimes.downtimes = []model.Downtime{{
		ID:          primitive.NewObjectID(),
		ScheduledBy: "h1!maint1",
		StartTime:   f.now.Add(-2 * time.Hour),
		EndTime:     f.now.Add(time.Hour),
	}}

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	assert.Len(t, f.downtimes.created, 1)
}

func TestReconciler_ForeignDowntimeIgnored(t *testing.T) {
	f := newReconcilerFixture(t, "")

	// An upcoming downtime owned by a different schedule must not suppress
	// this schedule's reconcile.
	f.downtimes.downtimes = []model.Downtime{{
		ID:          primitive.NewObjectID(),
		ScheduledBy: "h1!other",
		StartTime:   f.now.Add(2 * time.Hour),
		EndTime:     f.now.Add(4 * time.Hour),
	}}

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	assert.Len(t, f.downtimes.created, 1)
}

func TestReconciler_DisabledScheduleSkipped(t *testing.T) {
	f := newReconcilerFixture(t, "")
	f.schedule.Enabled = false

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	assert.Empty(t, f.downtimes.created)
}

func TestReconciler_NoSegmentIsNoOp(t *testing.T) {
	f := newReconcilerFixture(t, "")
	f.reconciler.finder = NewSegmentFinder(&fakeResolver{})

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	assert.Empty(t, f.downtimes.created)
}

func TestReconciler_MissingCheckableFails(t *testing.T) {
	f := newReconcilerFixture(t, "")
	f.reconciler.checkables = &fakeCheckableDirectory{}

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doesn't exist")
}

func TestReconciler_UnknownScheduleFails(t *testing.T) {
	f := newReconcilerFixture(t, "")

	err := f.reconciler.Reconcile(context.Background(), primitive.NewObjectID().Hex(), "corr-1")
	assert.Error(t, err)
}

func TestReconciler_InvalidScheduleIDFails(t *testing.T) {
	f := newReconcilerFixture(t, "")

	err := f.reconciler.Reconcile(context.Background(), "not-an-object-id", "corr-1")
	assert.Error(t, err)
}

func TestReconciler_NotifiesOnCreate(t *testing.T) {
	f := newReconcilerFixture(t, "")

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, webhook.EventDowntimeCreated, event.Event)
	assert.Equal(t, "h1!maint1", event.ScheduleName)
	assert.Equal(t, "h1", event.Checkable)
}

func TestReconciler_NotifierFailureDoesNotFailReconcile(t *testing.T) {
	f := newReconcilerFixture(t, "")
	f.notifier.err = errors.New("webhook down")

	err := f.reconciler.Reconcile(context.Background(), f.schedule.ID.Hex(), "corr-1")
	require.NoError(t, err)

	assert.Len(t, f.downtimes.created, 1)
}
