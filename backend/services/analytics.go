package services

import (
	"context"
	"fmt"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/models"

	"github.com/jinzhu/now"
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Analytics computes the learner dashboard over small per-user result sets.
type Analytics struct {
	store *docstore.Store

	Now      func() time.Time
	Location *time.Location
}

func NewAnalytics(store *docstore.Store) *Analytics {
	return &Analytics{store: store, Location: time.UTC}
}

func (a *Analytics) Summary(ctx context.Context, sess *Session) (*models.Analytics, error) {
	uid, err := sess.uid()
	if err != nil {
		return nil, err
	}

	enrollments, err := listEnrollments(ctx, a.store, uid)
	if err != nil {
		return nil, err
	}
	progressSnaps, err := a.store.List(ctx, models.LessonProgressCollection(uid))
	if err != nil {
		return nil, err
	}

	out := &models.Analytics{
		TotalCoursesEnrolled: len(enrollments),
		CourseProgress:       make([]models.CourseProgress, 0, len(enrollments)),
		CategoryData:         make([]models.CategoryCount, 0, len(enrollments)),
	}

	totalPossible := 0
	for _, e := range enrollments {
		out.TotalLessonsCompleted += e.CompletedLessons
		totalPossible += e.TotalLessons
		out.CourseProgress = append(out.CourseProgress, models.CourseProgress{
			Name:      e.CourseTitle,
			Completed: e.CompletedLessons,
			Total:     e.TotalLessons,
		})
		out.CategoryData = append(out.CategoryData, models.CategoryCount{
			Name:  e.CourseTitle,
			Value: e.CompletedLessons,
		})
	}
	if totalPossible > 0 {
		out.AverageCompletionRate = float64(out.TotalLessonsCompleted) / float64(totalPossible) * 100
	}

	var completions []time.Time
	for _, snap := range progressSnaps {
		var p models.LessonProgress
		if err := snap.DataTo(&p); err != nil {
			return nil, err
		}
		if p.Completed && p.CompletedAt != nil {
			completions = append(completions, *p.CompletedAt)
		}
	}
	out.WeeklyData, out.MonthlyData = a.buckets(completions)
	return out, nil
}

// buckets counts completions per weekday of the current Monday based week and
// per week of the four weeks ending with it.
func (a *Analytics) buckets(completions []time.Time) ([]models.DayCount, []models.WeekCount) {
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	cal := &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}

	today := dayNumber(current(a.Now).In(loc))
	weekStart := dayNumber(cal.With(current(a.Now).In(loc)).BeginningOfWeek())
	monthStart := weekStart - 21

	weekly := make([]models.DayCount, len(weekdays))
	for i, d := range weekdays {
		weekly[i] = models.DayCount{Day: d}
	}
	monthly := make([]models.WeekCount, 4)
	for i := range monthly {
		monthly[i] = models.WeekCount{Week: fmt.Sprintf("Week %d", i+1)}
	}

	for _, t := range completions {
		local := t.In(loc)
		day := dayNumber(local)
		if day > today {
			continue
		}
		if day >= weekStart {
			weekly[(int(local.Weekday())+6)%7].Completed++
		}
		if day >= monthStart {
			if idx := (day - monthStart) / 7; idx < 4 {
				monthly[idx].Completed++
			}
		}
	}
	return weekly, monthly
}

// dayNumber is the civil day of t counted from the Unix epoch.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
