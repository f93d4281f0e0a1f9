package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/models"
	"skillsync/backend/notify"
	"skillsync/backend/services"
	"skillsync/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *docstore.Store
	svc      *services.Services
	notifier *notify.Recorder
	clock    *testutil.Clock
	sess     *services.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewStore(t)
	rec := &notify.Recorder{}
	svc := services.New(store, nil, rec, "admin@example.com", testutil.Logger())
	clock := testutil.NewClock(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)) // a Wednesday
	svc.SetClock(clock.Now)

	return &fixture{
		store:    store,
		svc:      svc,
		notifier: rec,
		clock:    clock,
		sess:     &services.Session{UserID: "user-1", Email: "learner@example.com"},
	}
}

func (f *fixture) course(t *testing.T, lessons int) string {
	t.Helper()
	ctx := context.Background()
	c, err := f.svc.Catalog.CreateCourse(ctx, services.CourseInput{Title: "Go Basics", Description: "Intro", Instructor: "Rob"})
	require.NoError(t, err)
	for i := 0; i < lessons; i++ {
		_, err := f.svc.Catalog.CreateLesson(ctx, c.ID, services.LessonInput{Title: fmt.Sprintf("Lesson %d", i+1)})
		require.NoError(t, err)
	}
	return c.ID
}

func (f *fixture) enrollment(t *testing.T, courseID string) models.Enrollment {
	t.Helper()
	snap, err := f.store.Get(context.Background(), models.EnrollmentPath(f.sess.UserID, courseID))
	require.NoError(t, err)
	var e models.Enrollment
	require.NoError(t, snap.DataTo(&e))
	return e
}

func (f *fixture) completedRecords(t *testing.T, courseID string) int {
	t.Helper()
	snaps, err := f.store.List(context.Background(), models.LessonProgressCollection(f.sess.UserID))
	require.NoError(t, err)
	n := 0
	for _, s := range snaps {
		var p models.LessonProgress
		require.NoError(t, s.DataTo(&p))
		if p.CourseID == courseID && p.Completed {
			n++
		}
	}
	return n
}

func TestThreeLessonScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 3)

	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)

	for i, lesson := range []string{"lesson-1", "lesson-2"} {
		res, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, lesson)
		require.NoError(t, err)
		assert.True(t, res.Completed)
		assert.Equal(t, i+1, res.CompletedLessons)
		assert.False(t, res.CourseCompleted)
	}

	res, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, "lesson-3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.CompletedLessons)
	assert.True(t, res.CourseCompleted)

	e := f.enrollment(t, courseID)
	assert.True(t, e.IsCompleted)
	require.NotNil(t, e.CourseCompletedAt)
	assert.Equal(t, f.clock.Now(), e.CourseCompletedAt.UTC())

	f.svc.Progress.Wait()
	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, courseID, events[0].CourseID)
	assert.Equal(t, "learner@example.com", events[0].Email)

	res, err = f.svc.Progress.Toggle(ctx, f.sess, courseID, "lesson-2")
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, 2, res.CompletedLessons)

	e = f.enrollment(t, courseID)
	assert.False(t, e.IsCompleted)
	assert.Nil(t, e.CourseCompletedAt)
	assert.Equal(t, 2, e.CompletedLessons)
}

func TestToggleParityAndCounterInvariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 4)
	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)

	sequence := []string{"lesson-1", "lesson-1", "lesson-1", "lesson-2", "lesson-4", "lesson-2", "lesson-1", "lesson-3"}
	flips := map[string]int{}
	for _, lesson := range sequence {
		res, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, lesson)
		require.NoError(t, err)
		flips[lesson]++
		assert.Equal(t, flips[lesson]%2 == 1, res.Completed, lesson)

		e := f.enrollment(t, courseID)
		assert.Equal(t, f.completedRecords(t, courseID), e.CompletedLessons)
		assert.LessOrEqual(t, e.CompletedLessons, e.TotalLessons)
		assert.Equal(t, e.TotalLessons > 0 && e.CompletedLessons == e.TotalLessons, e.IsCompleted)
	}
}

func TestToggleWithoutEnrollment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 2)

	res, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, "lesson-1")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.False(t, res.Enrolled)
	assert.Equal(t, 0, res.CompletedLessons)

	// the progress record is still written
	assert.Equal(t, 1, f.completedRecords(t, courseID))

	_, err = f.store.Get(ctx, models.EnrollmentPath(f.sess.UserID, courseID))
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestStaleToggleRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 2)
	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)

	req := services.ToggleRequest{CourseID: courseID, LessonID: "lesson-1", CurrentlyCompleted: false, TotalLessons: 2}
	_, err = f.svc.Progress.ToggleLesson(ctx, f.sess, req)
	require.NoError(t, err)

	// a second tab still showing the lesson as incomplete
	_, err = f.svc.Progress.ToggleLesson(ctx, f.sess, req)
	assert.ErrorIs(t, err, services.ErrStaleToggle)

	assert.Equal(t, 1, f.enrollment(t, courseID).CompletedLessons)
}

func TestToggleClampsDriftedCounter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 2)
	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)

	e := f.enrollment(t, courseID)
	e.CompletedLessons = 2
	require.NoError(t, f.store.Set(ctx, models.EnrollmentPath(f.sess.UserID, courseID), e))

	res, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, "lesson-1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.CompletedLessons)
}

func TestToggleRequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Progress.Toggle(context.Background(), nil, "c", "lesson-1")
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}

func TestToggleUnknownLesson(t *testing.T) {
	f := newFixture(t)
	courseID := f.course(t, 1)
	_, err := f.svc.Progress.Toggle(context.Background(), f.sess, courseID, "lesson-9")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestRecountRepairsDrift(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 2)
	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(ctx, models.UserPath(f.sess.UserID), models.User{ID: f.sess.UserID}))

	for _, l := range []string{"lesson-1", "lesson-2"} {
		_, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, l)
		require.NoError(t, err)
	}

	e := f.enrollment(t, courseID)
	e.CompletedLessons = 0
	e.IsCompleted = false
	require.NoError(t, f.store.Set(ctx, models.EnrollmentPath(f.sess.UserID, courseID), e))

	users, fixed, err := f.svc.Progress.RecountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)
	assert.Equal(t, 1, fixed)

	e = f.enrollment(t, courseID)
	assert.Equal(t, 2, e.CompletedLessons)
	assert.True(t, e.IsCompleted)
	assert.NotNil(t, e.CourseCompletedAt)

	// a second pass has nothing to do
	fixedAgain, err := f.svc.Progress.RecountUser(ctx, f.sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, 0, fixedAgain)
}

func TestConcurrentTogglesCountOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// one writer per lesson; each can lose the enrollment race at most
	// lessons-1 times, which stays within the store's retry budget
	const lessons = 5
	courseID := f.course(t, lessons)
	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, lessons)
	for i := 1; i <= lessons; i++ {
		wg.Add(1)
		go func(lessonID string) {
			defer wg.Done()
			_, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, lessonID)
			errs <- err
		}(models.LessonID(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	e := f.enrollment(t, courseID)
	assert.Equal(t, lessons, e.CompletedLessons)
	assert.True(t, e.IsCompleted)

	f.svc.Progress.Wait()
	assert.Len(t, f.notifier.Events(), 1)
}

type blockingNotifier struct {
	release chan struct{}
	done    chan struct{}
}

func (n *blockingNotifier) CourseCompleted(ctx context.Context, _ notify.CompletionEvent) error {
	defer close(n.done)
	select {
	case <-n.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestCompletionNoticeDoesNotBlockToggle(t *testing.T) {
	store := testutil.NewStore(t)
	n := &blockingNotifier{release: make(chan struct{}), done: make(chan struct{})}
	svc := services.New(store, nil, n, "", testutil.Logger())
	sess := &services.Session{UserID: "user-1"}
	ctx, cancel := context.WithCancel(context.Background())

	c, err := svc.Catalog.CreateCourse(ctx, services.CourseInput{Title: "Go", Instructor: "Rob"})
	require.NoError(t, err)
	_, err = svc.Catalog.CreateLesson(ctx, c.ID, services.LessonInput{Title: "Only"})
	require.NoError(t, err)
	_, err = svc.Enrollments.Enroll(ctx, sess, c.ID)
	require.NoError(t, err)

	res, err := svc.Progress.Toggle(ctx, sess, c.ID, "lesson-1")
	require.NoError(t, err)
	assert.True(t, res.CourseCompleted)

	// the request ending must not cancel the pending notice
	cancel()
	select {
	case <-n.done:
		t.Fatal("notice finished before it was released")
	default:
	}
	close(n.release)
	svc.Progress.Wait()
	<-n.done
}

func TestRecountIgnoresDeletedLessons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 3)
	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)

	for _, l := range []string{"lesson-1", "lesson-2"} {
		_, err := f.svc.Progress.Toggle(ctx, f.sess, courseID, l)
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.Catalog.DeleteLesson(ctx, courseID, "lesson-2"))

	fixed, err := f.svc.Progress.RecountUser(ctx, f.sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	// lesson-3 is still open, so the course is not complete
	e := f.enrollment(t, courseID)
	assert.Equal(t, 2, e.TotalLessons)
	assert.Equal(t, 1, e.CompletedLessons)
	assert.False(t, e.IsCompleted)
}
