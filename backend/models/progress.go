package models

import "time"

// Enrollment is a user's membership in a course. Course fields are copied at
// enroll time and not kept in sync afterwards, except TotalLessons which the
// reconciler refreshes on every toggle.
type Enrollment struct {
	CourseID          string     `json:"courseId"`
	CourseTitle       string     `json:"courseTitle"`
	CourseDescription string     `json:"courseDescription"`
	Instructor        string     `json:"instructor"`
	TotalLessons      int        `json:"totalLessons"`
	CompletedLessons  int        `json:"completedLessons"`
	IsCompleted       bool       `json:"isCompleted"`
	CourseCompletedAt *time.Time `json:"courseCompletedAt"`
	EnrolledAt        time.Time  `json:"enrolledAt"`
}

type LessonProgress struct {
	CourseID    string     `json:"courseId"`
	LessonID    string     `json:"lessonId"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt"`
}
