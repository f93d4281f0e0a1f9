package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/models"
)

type Enrollments struct {
	store  *docstore.Store
	logger *log.Logger

	Now func() time.Time
}

func NewEnrollments(store *docstore.Store, logger *log.Logger) *Enrollments {
	return &Enrollments{store: store, logger: logger}
}

// Enroll copies the course fields into a fresh enrollment for the caller.
func (s *Enrollments) Enroll(ctx context.Context, sess *Session, courseID string) (*models.Enrollment, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Get(ctx, models.CoursePath(courseID))
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	var course models.Course
	if err := snap.DataTo(&course); err != nil {
		return nil, err
	}

	e := models.Enrollment{
		CourseID:          courseID,
		CourseTitle:       course.Title,
		CourseDescription: course.Description,
		Instructor:        course.Instructor,
		TotalLessons:      course.TotalLessons,
		CompletedLessons:  0,
		EnrolledAt:        current(s.Now),
	}
	_, err = s.store.Create(ctx, models.EnrollmentPath(uid, courseID), e)
	if errors.Is(err, docstore.ErrExists) {
		return nil, ErrAlreadyEnrolled
	}
	if err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	return &e, nil
}

// Unenroll removes the enrollment and every progress record of the course.
// It is a no-op for a course the caller is not enrolled in.
func (s *Enrollments) Unenroll(ctx context.Context, sess *Session, courseID string) error {
	uid, err := sess.uid()
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, models.EnrollmentPath(uid, courseID)); err != nil {
		return fmt.Errorf("unenroll: %w", err)
	}

	snaps, err := s.store.List(ctx, models.LessonProgressCollection(uid))
	if err != nil {
		return fmt.Errorf("unenroll: %w", err)
	}
	prefix := models.LessonProgressID(courseID, "")
	removed := 0
	for _, snap := range snaps {
		if !strings.HasPrefix(snap.ID, prefix) {
			continue
		}
		if err := s.store.Delete(ctx, snap.Path); err != nil {
			return fmt.Errorf("unenroll: %w", err)
		}
		removed++
	}
	s.logger.Printf("User %s unenrolled from %s, removed %d progress records", uid, courseID, removed)
	return nil
}

// List returns the caller's enrollments, most recent first.
func (s *Enrollments) List(ctx context.Context, sess *Session) ([]models.Enrollment, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}
	return listEnrollments(ctx, s.store, uid)
}

func listEnrollments(ctx context.Context, store *docstore.Store, uid string) ([]models.Enrollment, error) {
	snaps, err := store.List(ctx, models.EnrollmentsCollection(uid))
	if err != nil {
		return nil, err
	}
	out := make([]models.Enrollment, 0, len(snaps))
	for _, snap := range snaps {
		var e models.Enrollment
		if err := snap.DataTo(&e); err != nil {
			return nil, err
		}
		e.CourseID = snap.ID
		out = append(out, e)
	}
	sortEnrollments(out)
	return out, nil
}

func sortEnrollments(list []models.Enrollment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].EnrolledAt.After(list[j].EnrolledAt)
	})
}
