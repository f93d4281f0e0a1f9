package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/models"
	"skillsync/backend/notify"
)

type ToggleRequest struct {
	CourseID           string
	LessonID           string
	CurrentlyCompleted bool
	TotalLessons       int
}

type ToggleResult struct {
	Completed        bool `json:"completed"`
	CompletedLessons int  `json:"completedLessons"`
	CourseCompleted  bool `json:"courseCompleted"`
	// Enrolled is false when no enrollment existed and the counter was skipped.
	Enrolled bool `json:"enrolled"`
}

// Reconciler keeps LessonProgress, the enrollment counter and the course
// completion flag consistent with each other.
type Reconciler struct {
	store    *docstore.Store
	notifier notify.Notifier
	logger   *log.Logger
	notices  sync.WaitGroup

	Now func() time.Time
	// NotifyTimeout bounds one completion notice, which runs after the
	// toggle has returned.
	NotifyTimeout time.Duration
}

func NewReconciler(store *docstore.Store, notifier notify.Notifier, logger *log.Logger) *Reconciler {
	return &Reconciler{store: store, notifier: notifier, logger: logger, NotifyTimeout: 30 * time.Second}
}

// Wait blocks until every completion notice started so far has finished.
func (r *Reconciler) Wait() {
	r.notices.Wait()
}

// ToggleLesson flips one lesson for the session user and updates the
// enrollment counter. The two writes are separate compare-and-swap updates;
// a failure after the first leaves the progress record written.
func (r *Reconciler) ToggleLesson(ctx context.Context, sess *Session, req ToggleRequest) (*ToggleResult, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}

	completed := !req.CurrentlyCompleted
	now := current(r.Now)

	progressPath := models.LessonProgressPath(uid, req.CourseID, req.LessonID)
	_, err = r.store.Mutate(ctx, progressPath, func(cur *docstore.Snapshot) (any, error) {
		var stored models.LessonProgress
		if cur != nil {
			if err := cur.DataTo(&stored); err != nil {
				return nil, err
			}
		}
		if stored.Completed != req.CurrentlyCompleted {
			return nil, ErrStaleToggle
		}

		next := models.LessonProgress{
			CourseID:  req.CourseID,
			LessonID:  req.LessonID,
			Completed: completed,
		}
		if completed {
			next.CompletedAt = &now
		}
		return next, nil
	})
	if err != nil {
		if !errors.Is(err, ErrStaleToggle) {
			r.logger.Printf("Error writing lesson progress %s: %v", progressPath, err)
		}
		return nil, fmt.Errorf("update lesson progress: %w", err)
	}

	result := &ToggleResult{Completed: completed, Enrolled: true}
	var enrollment models.Enrollment

	enrollmentPath := models.EnrollmentPath(uid, req.CourseID)
	_, err = r.store.Mutate(ctx, enrollmentPath, func(cur *docstore.Snapshot) (any, error) {
		if cur == nil {
			return nil, docstore.ErrNotFound
		}
		var e models.Enrollment
		if err := cur.DataTo(&e); err != nil {
			return nil, err
		}

		total := req.TotalLessons
		count := e.CompletedLessons
		if req.CurrentlyCompleted {
			count = max(0, count-1)
		} else {
			count++
		}
		if total > 0 {
			count = min(count, total)
			e.TotalLessons = total
		}
		e.CompletedLessons = count

		courseCompleted := false
		switch {
		case completed && total > 0 && count == total:
			if !e.IsCompleted {
				courseCompleted = true
				e.CourseCompletedAt = &now
			}
			e.IsCompleted = true
		case !completed && count < total:
			e.IsCompleted = false
			e.CourseCompletedAt = nil
		}

		result.CompletedLessons = count
		result.CourseCompleted = courseCompleted
		enrollment = e
		return e, nil
	})
	if errors.Is(err, docstore.ErrNotFound) {
		r.logger.Printf("Warning: lesson %s toggled for user %s without an enrollment in course %s, counter not updated",
			req.LessonID, uid, req.CourseID)
		result.Enrolled = false
		return result, nil
	}
	if err != nil {
		r.logger.Printf("Error updating enrollment %s: %v", enrollmentPath, err)
		return nil, fmt.Errorf("update enrollment: %w", err)
	}

	if result.CourseCompleted {
		r.signalCompletion(ctx, sess, enrollment, now)
	}
	return result, nil
}

// Toggle flips a lesson using the stored completion state and the live
// lesson count of the course.
func (r *Reconciler) Toggle(ctx context.Context, sess *Session, courseID, lessonID string) (*ToggleResult, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}
	if _, err := r.store.Get(ctx, models.LessonPath(courseID, lessonID)); err != nil {
		return nil, err
	}
	total, err := r.lessonCount(ctx, courseID)
	if err != nil {
		return nil, err
	}

	currentlyCompleted := false
	snap, err := r.store.Get(ctx, models.LessonProgressPath(uid, courseID, lessonID))
	switch {
	case err == nil:
		var p models.LessonProgress
		if err := snap.DataTo(&p); err != nil {
			return nil, err
		}
		currentlyCompleted = p.Completed
	case !errors.Is(err, docstore.ErrNotFound):
		return nil, err
	}

	return r.ToggleLesson(ctx, sess, ToggleRequest{
		CourseID:           courseID,
		LessonID:           lessonID,
		CurrentlyCompleted: currentlyCompleted,
		TotalLessons:       max(total, 0),
	})
}

func (r *Reconciler) signalCompletion(ctx context.Context, sess *Session, e models.Enrollment, at time.Time) {
	event := notify.CompletionEvent{
		UserID:      sess.UserID,
		Email:       sess.Email,
		CourseID:    e.CourseID,
		CourseTitle: e.CourseTitle,
		CompletedAt: at,
	}
	if snap, err := r.store.Get(ctx, models.UserPath(sess.UserID)); err == nil {
		var u models.User
		if snap.DataTo(&u) == nil {
			event.Name = u.Name
			if event.Email == "" {
				event.Email = u.Email
			}
		}
	}

	// the notice outlives the request context
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.NotifyTimeout)
	r.notices.Add(1)
	go func() {
		defer r.notices.Done()
		defer cancel()
		if err := r.notifier.CourseCompleted(notifyCtx, event); err != nil {
			r.logger.Printf("Error sending completion notice for course %s: %v", e.CourseID, err)
		}
	}()
}

// RecountUser recomputes every enrollment counter of uid from its
// LessonProgress records and returns how many enrollments were corrected.
func (r *Reconciler) RecountUser(ctx context.Context, uid string) (int, error) {
	enrollments, err := r.store.List(ctx, models.EnrollmentsCollection(uid))
	if err != nil {
		return 0, err
	}
	if len(enrollments) == 0 {
		return 0, nil
	}

	progress, err := r.store.List(ctx, models.LessonProgressCollection(uid))
	if err != nil {
		return 0, err
	}
	done := make(map[string][]string)
	for _, snap := range progress {
		var p models.LessonProgress
		if err := snap.DataTo(&p); err != nil {
			return 0, err
		}
		if p.Completed {
			done[p.CourseID] = append(done[p.CourseID], p.LessonID)
		}
	}

	fixed := 0
	for _, snap := range enrollments {
		courseID := snap.ID
		live, err := r.liveLessons(ctx, courseID)
		if err != nil {
			return fixed, err
		}
		total := -1
		if live != nil {
			total = len(live)
		}
		// progress on deleted lessons does not count
		count := 0
		for _, lessonID := range done[courseID] {
			if live == nil || live[lessonID] {
				count++
			}
		}

		changed := false
		_, err = r.store.Mutate(ctx, snap.Path, func(cur *docstore.Snapshot) (any, error) {
			if cur == nil {
				return nil, docstore.ErrNotFound
			}
			var e models.Enrollment
			if err := cur.DataTo(&e); err != nil {
				return nil, err
			}
			before := e
			if total >= 0 {
				e.TotalLessons = total
			}
			e.CompletedLessons = min(count, e.TotalLessons)
			complete := e.TotalLessons > 0 && e.CompletedLessons == e.TotalLessons
			if complete && !e.IsCompleted {
				at := current(r.Now)
				e.CourseCompletedAt = &at
			}
			if !complete {
				e.CourseCompletedAt = nil
			}
			e.IsCompleted = complete

			changed = before.CompletedLessons != e.CompletedLessons ||
				before.TotalLessons != e.TotalLessons ||
				before.IsCompleted != e.IsCompleted
			if !changed {
				return nil, errUnchanged
			}
			return e, nil
		})
		if errors.Is(err, errUnchanged) || errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return fixed, err
		}
		r.logger.Printf("[AUDIT] corrected enrollment %s", snap.Path)
		fixed++
	}
	return fixed, nil
}

// RecountAll runs RecountUser for every user document.
func (r *Reconciler) RecountAll(ctx context.Context) (users, fixed int, err error) {
	snaps, err := r.store.List(ctx, models.CollectionUsers)
	if err != nil {
		return 0, 0, err
	}
	for _, snap := range snaps {
		n, err := r.RecountUser(ctx, snap.ID)
		if err != nil {
			return users, fixed, fmt.Errorf("recount %s: %w", snap.ID, err)
		}
		users++
		fixed += n
	}
	return users, fixed, nil
}

// lessonCount returns the live lesson count, or -1 when the course is gone.
func (r *Reconciler) lessonCount(ctx context.Context, courseID string) (int, error) {
	live, err := r.liveLessons(ctx, courseID)
	if err != nil {
		return 0, err
	}
	if live == nil {
		return -1, nil
	}
	return len(live), nil
}

// liveLessons returns the set of lesson ids of courseID, or nil when the
// course is gone.
func (r *Reconciler) liveLessons(ctx context.Context, courseID string) (map[string]bool, error) {
	if _, err := r.store.Get(ctx, models.CoursePath(courseID)); errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	lessons, err := r.store.List(ctx, models.LessonsCollection(courseID))
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool, len(lessons))
	for _, snap := range lessons {
		live[snap.ID] = true
	}
	return live, nil
}

var errUnchanged = errors.New("unchanged")

// progressByLesson returns the session user's progress records for one
// course keyed by lesson id.
func progressByLesson(ctx context.Context, store *docstore.Store, uid, courseID string) (map[string]models.LessonProgress, error) {
	snaps, err := store.List(ctx, models.LessonProgressCollection(uid))
	if err != nil {
		return nil, err
	}
	prefix := models.LessonProgressID(courseID, "")
	out := make(map[string]models.LessonProgress)
	for _, snap := range snaps {
		if !strings.HasPrefix(snap.ID, prefix) {
			continue
		}
		var p models.LessonProgress
		if err := snap.DataTo(&p); err != nil {
			return nil, err
		}
		out[p.LessonID] = p
	}
	return out, nil
}
