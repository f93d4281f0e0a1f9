package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/models"

	"github.com/google/uuid"
)

type CourseInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Instructor  string `json:"instructor" validate:"required,max=200"`
}

type LessonInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Content     string `json:"content" validate:"max=100000"`
}

type CourseSummary struct {
	models.Course
	Enrolled bool `json:"enrolled"`
}

type LessonSummary struct {
	models.Lesson
	Completed bool `json:"completed"`
}

type CourseDetail struct {
	Course     models.Course      `json:"course"`
	Lessons    []LessonSummary    `json:"lessons"`
	Enrollment *models.Enrollment `json:"enrollment"`
}

type LessonDetail struct {
	Lesson       models.Lesson `json:"lesson"`
	CourseTitle  string        `json:"courseTitle"`
	Completed    bool          `json:"completed"`
	TotalLessons int           `json:"totalLessons"`
	Enrolled     bool          `json:"enrolled"`
}

// Catalog manages courses and lessons.
type Catalog struct {
	store  *docstore.Store
	logger *log.Logger

	Now func() time.Time
}

func NewCatalog(store *docstore.Store, logger *log.Logger) *Catalog {
	return &Catalog{store: store, logger: logger}
}

func (c *Catalog) CreateCourse(ctx context.Context, in CourseInput) (*models.Course, error) {
	now := current(c.Now)
	course := models.Course{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Instructor:   in.Instructor,
		TotalLessons: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := c.store.Create(ctx, models.CoursePath(course.ID), course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return &course, nil
}

func (c *Catalog) UpdateCourse(ctx context.Context, id string, in CourseInput) (*models.Course, error) {
	var updated models.Course
	_, err := c.store.Mutate(ctx, models.CoursePath(id), func(cur *docstore.Snapshot) (any, error) {
		if cur == nil {
			return nil, docstore.ErrNotFound
		}
		if err := cur.DataTo(&updated); err != nil {
			return nil, err
		}
		updated.Title = in.Title
		updated.Description = in.Description
		updated.Instructor = in.Instructor
		updated.UpdatedAt = current(c.Now)
		return updated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update course %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteCourse removes the course and its lessons. Enrollments and progress
// records of learners are left alone.
func (c *Catalog) DeleteCourse(ctx context.Context, id string) error {
	if _, err := c.store.Get(ctx, models.CoursePath(id)); err != nil {
		return fmt.Errorf("delete course %s: %w", id, err)
	}
	n, err := c.store.DeleteCollection(ctx, models.LessonsCollection(id))
	if err != nil {
		return fmt.Errorf("delete lessons of %s: %w", id, err)
	}
	if err := c.store.Delete(ctx, models.CoursePath(id)); err != nil {
		return err
	}
	c.logger.Printf("Deleted course %s with %d lessons", id, n)
	return nil
}

func (c *Catalog) GetCourseRecord(ctx context.Context, id string) (*models.Course, error) {
	snap, err := c.store.Get(ctx, models.CoursePath(id))
	if err != nil {
		return nil, err
	}
	var course models.Course
	if err := snap.DataTo(&course); err != nil {
		return nil, err
	}
	course.ID = snap.ID
	return &course, nil
}

func (c *Catalog) AllCourses(ctx context.Context) ([]models.Course, error) {
	snaps, err := c.store.List(ctx, models.CollectionCourses)
	if err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(snaps))
	for _, snap := range snaps {
		var course models.Course
		if err := snap.DataTo(&course); err != nil {
			return nil, err
		}
		course.ID = snap.ID
		courses = append(courses, course)
	}
	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].CreatedAt.Before(courses[j].CreatedAt)
	})
	return courses, nil
}

// ListCourses returns every course, flagged with the caller's enrollment.
func (c *Catalog) ListCourses(ctx context.Context, sess *Session) ([]CourseSummary, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}
	courses, err := c.AllCourses(ctx)
	if err != nil {
		return nil, err
	}
	enrolled, err := c.store.List(ctx, models.EnrollmentsCollection(uid))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(enrolled))
	for _, snap := range enrolled {
		ids[snap.ID] = true
	}

	out := make([]CourseSummary, 0, len(courses))
	for _, course := range courses {
		out = append(out, CourseSummary{Course: course, Enrolled: ids[course.ID]})
	}
	return out, nil
}

// Lessons returns the lessons of a course in ordinal order.
func (c *Catalog) Lessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	snaps, err := c.store.List(ctx, models.LessonsCollection(courseID))
	if err != nil {
		return nil, err
	}
	lessons := make([]models.Lesson, 0, len(snaps))
	for _, snap := range snaps {
		var l models.Lesson
		if err := snap.DataTo(&l); err != nil {
			return nil, err
		}
		l.ID = snap.ID
		l.CourseID = courseID
		if l.Ordinal == 0 {
			l.Ordinal = models.LessonOrdinal(snap.ID)
		}
		lessons = append(lessons, l)
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].Ordinal < lessons[j].Ordinal
	})
	return lessons, nil
}

func (c *Catalog) GetCourse(ctx context.Context, sess *Session, id string) (*CourseDetail, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}
	course, err := c.GetCourseRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	lessons, err := c.Lessons(ctx, id)
	if err != nil {
		return nil, err
	}
	progress, err := progressByLesson(ctx, c.store, uid, id)
	if err != nil {
		return nil, err
	}

	detail := &CourseDetail{Course: *course, Lessons: make([]LessonSummary, 0, len(lessons))}
	for _, l := range lessons {
		detail.Lessons = append(detail.Lessons, LessonSummary{Lesson: l, Completed: progress[l.ID].Completed})
	}

	if snap, err := c.store.Get(ctx, models.EnrollmentPath(uid, id)); err == nil {
		var e models.Enrollment
		if err := snap.DataTo(&e); err != nil {
			return nil, err
		}
		detail.Enrollment = &e
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}
	return detail, nil
}

func (c *Catalog) GetLesson(ctx context.Context, sess *Session, courseID, lessonID string) (*LessonDetail, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}
	course, err := c.GetCourseRecord(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lesson, err := c.lesson(ctx, courseID, lessonID)
	if err != nil {
		return nil, err
	}
	lessons, err := c.store.List(ctx, models.LessonsCollection(courseID))
	if err != nil {
		return nil, err
	}

	detail := &LessonDetail{
		Lesson:       *lesson,
		CourseTitle:  course.Title,
		TotalLessons: len(lessons),
	}

	if snap, err := c.store.Get(ctx, models.LessonProgressPath(uid, courseID, lessonID)); err == nil {
		var p models.LessonProgress
		if err := snap.DataTo(&p); err != nil {
			return nil, err
		}
		detail.Completed = p.Completed
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}

	if _, err := c.store.Get(ctx, models.EnrollmentPath(uid, courseID)); err == nil {
		detail.Enrolled = true
	} else if !errors.Is(err, docstore.ErrNotFound) {
		return nil, err
	}
	return detail, nil
}

func (c *Catalog) lesson(ctx context.Context, courseID, lessonID string) (*models.Lesson, error) {
	snap, err := c.store.Get(ctx, models.LessonPath(courseID, lessonID))
	if err != nil {
		return nil, err
	}
	var l models.Lesson
	if err := snap.DataTo(&l); err != nil {
		return nil, err
	}
	l.ID = snap.ID
	l.CourseID = courseID
	return &l, nil
}

// CreateLesson appends a lesson with id lesson-{n}, n one past the highest
// ordinal in the course, and bumps the course lesson count.
func (c *Catalog) CreateLesson(ctx context.Context, courseID string, in LessonInput) (*models.Lesson, error) {
	if _, err := c.store.Get(ctx, models.CoursePath(courseID)); err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}

	var lesson models.Lesson
	for attempt := 0; ; attempt++ {
		lessons, err := c.Lessons(ctx, courseID)
		if err != nil {
			return nil, err
		}
		next := 1
		if len(lessons) > 0 {
			next = lessons[len(lessons)-1].Ordinal + 1
		}

		lesson = models.Lesson{
			ID:          models.LessonID(next),
			CourseID:    courseID,
			Ordinal:     next,
			Title:       in.Title,
			Description: in.Description,
			Content:     in.Content,
		}
		_, err = c.store.Create(ctx, models.LessonPath(courseID, lesson.ID), lesson)
		if err == nil {
			break
		}
		if !errors.Is(err, docstore.ErrExists) || attempt >= 4 {
			return nil, fmt.Errorf("create lesson: %w", err)
		}
	}

	if err := c.adjustLessonCount(ctx, courseID, 1); err != nil {
		c.logger.Printf("Error incrementing lesson count for %s: %v", courseID, err)
		return nil, err
	}
	return &lesson, nil
}

func (c *Catalog) UpdateLesson(ctx context.Context, courseID, lessonID string, in LessonInput) (*models.Lesson, error) {
	var updated models.Lesson
	_, err := c.store.Mutate(ctx, models.LessonPath(courseID, lessonID), func(cur *docstore.Snapshot) (any, error) {
		if cur == nil {
			return nil, docstore.ErrNotFound
		}
		if err := cur.DataTo(&updated); err != nil {
			return nil, err
		}
		updated.ID = lessonID
		updated.CourseID = courseID
		updated.Title = in.Title
		updated.Description = in.Description
		updated.Content = in.Content
		return updated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update lesson %s: %w", lessonID, err)
	}
	return &updated, nil
}

func (c *Catalog) DeleteLesson(ctx context.Context, courseID, lessonID string) error {
	path := models.LessonPath(courseID, lessonID)
	if _, err := c.store.Get(ctx, path); err != nil {
		return fmt.Errorf("delete lesson %s: %w", lessonID, err)
	}
	if err := c.store.Delete(ctx, path); err != nil {
		return err
	}
	if err := c.adjustLessonCount(ctx, courseID, -1); err != nil {
		c.logger.Printf("Error decrementing lesson count for %s: %v", courseID, err)
		return err
	}
	return nil
}

func (c *Catalog) adjustLessonCount(ctx context.Context, courseID string, delta int) error {
	_, err := c.store.Mutate(ctx, models.CoursePath(courseID), func(cur *docstore.Snapshot) (any, error) {
		if cur == nil {
			return nil, docstore.ErrNotFound
		}
		var course models.Course
		if err := cur.DataTo(&course); err != nil {
			return nil, err
		}
		course.TotalLessons = max(0, course.TotalLessons+delta)
		course.UpdatedAt = current(c.Now)
		return course, nil
	})
	return err
}
