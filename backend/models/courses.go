package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Instructor   string    `json:"instructor"`
	TotalLessons int       `json:"totalLessons"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Lesson struct {
	ID          string `json:"id"`
	CourseID    string `json:"courseId"`
	Ordinal     int    `json:"ordinal"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

const lessonIDPrefix = "lesson-"

// LessonID returns the id of the lesson at ordinal n.
func LessonID(n int) string {
	return fmt.Sprintf("%s%d", lessonIDPrefix, n)
}

// LessonOrdinal parses the ordinal out of a lesson id. Ids that do not follow
// the lesson-N scheme yield 0.
func LessonOrdinal(id string) int {
	n, err := strconv.Atoi(strings.TrimPrefix(id, lessonIDPrefix))
	if err != nil || !strings.HasPrefix(id, lessonIDPrefix) {
		return 0
	}
	return n
}
