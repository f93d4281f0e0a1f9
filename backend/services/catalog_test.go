package services_test

import (
	"context"
	"testing"

	"skillsync/backend/docstore"
	"skillsync/backend/models"
	"skillsync/backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCourseStartsEmpty(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.Catalog.CreateCourse(context.Background(), services.CourseInput{Title: "T", Instructor: "I"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 0, c.TotalLessons)
}

func TestLessonIDsAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 3)

	course, err := f.svc.Catalog.GetCourseRecord(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, 3, course.TotalLessons)

	require.NoError(t, f.svc.Catalog.DeleteLesson(ctx, courseID, "lesson-2"))

	// the next id follows the highest ordinal rather than the count
	l, err := f.svc.Catalog.CreateLesson(ctx, courseID, services.LessonInput{Title: "Extra"})
	require.NoError(t, err)
	assert.Equal(t, "lesson-4", l.ID)
	assert.Equal(t, 4, l.Ordinal)

	lessons, err := f.svc.Catalog.Lessons(ctx, courseID)
	require.NoError(t, err)
	ids := []string{}
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"lesson-1", "lesson-3", "lesson-4"}, ids)

	course, err = f.svc.Catalog.GetCourseRecord(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, 3, course.TotalLessons)
}

func TestDeleteLessonFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 1)

	// simulate a course doc that already lost its count
	course, err := f.svc.Catalog.GetCourseRecord(ctx, courseID)
	require.NoError(t, err)
	course.TotalLessons = 0
	require.NoError(t, f.store.Set(ctx, models.CoursePath(courseID), course))

	require.NoError(t, f.svc.Catalog.DeleteLesson(ctx, courseID, "lesson-1"))
	course, err = f.svc.Catalog.GetCourseRecord(ctx, courseID)
	require.NoError(t, err)
	assert.Equal(t, 0, course.TotalLessons)

	err = f.svc.Catalog.DeleteLesson(ctx, courseID, "lesson-1")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestUpdateCourseAndLesson(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 1)

	c, err := f.svc.Catalog.UpdateCourse(ctx, courseID, services.CourseInput{Title: "New", Description: "D", Instructor: "Ken"})
	require.NoError(t, err)
	assert.Equal(t, "New", c.Title)
	assert.Equal(t, 1, c.TotalLessons)

	l, err := f.svc.Catalog.UpdateLesson(ctx, courseID, "lesson-1", services.LessonInput{Title: "Renamed", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", l.Title)
	assert.Equal(t, 1, l.Ordinal)

	_, err = f.svc.Catalog.UpdateCourse(ctx, "missing", services.CourseInput{Title: "x", Instructor: "y"})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestDeleteCourseRemovesLessons(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 2)

	require.NoError(t, f.svc.Catalog.DeleteCourse(ctx, courseID))

	_, err := f.svc.Catalog.GetCourseRecord(ctx, courseID)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	lessons, err := f.svc.Catalog.Lessons(ctx, courseID)
	require.NoError(t, err)
	assert.Empty(t, lessons)

	assert.ErrorIs(t, f.svc.Catalog.DeleteCourse(ctx, courseID), docstore.ErrNotFound)
}

func TestCourseViewsForLearner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	enrolledID := f.course(t, 2)
	otherID := f.course(t, 1)

	_, err := f.svc.Enrollments.Enroll(ctx, f.sess, enrolledID)
	require.NoError(t, err)
	_, err = f.svc.Progress.Toggle(ctx, f.sess, enrolledID, "lesson-2")
	require.NoError(t, err)

	list, err := f.svc.Catalog.ListCourses(ctx, f.sess)
	require.NoError(t, err)
	require.Len(t, list, 2)
	flags := map[string]bool{}
	for _, c := range list {
		flags[c.ID] = c.Enrolled
	}
	assert.True(t, flags[enrolledID])
	assert.False(t, flags[otherID])

	detail, err := f.svc.Catalog.GetCourse(ctx, f.sess, enrolledID)
	require.NoError(t, err)
	require.Len(t, detail.Lessons, 2)
	assert.False(t, detail.Lessons[0].Completed)
	assert.True(t, detail.Lessons[1].Completed)
	require.NotNil(t, detail.Enrollment)
	assert.Equal(t, 1, detail.Enrollment.CompletedLessons)

	lesson, err := f.svc.Catalog.GetLesson(ctx, f.sess, enrolledID, "lesson-2")
	require.NoError(t, err)
	assert.True(t, lesson.Completed)
	assert.True(t, lesson.Enrolled)
	assert.Equal(t, 2, lesson.TotalLessons)

	other, err := f.svc.Catalog.GetCourse(ctx, f.sess, otherID)
	require.NoError(t, err)
	assert.Nil(t, other.Enrollment)
}
