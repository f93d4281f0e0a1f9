package models

type DayCount struct {
	Day       string `json:"day"`
	Completed int    `json:"completed"`
}

type WeekCount struct {
	Week      string `json:"week"`
	Completed int    `json:"completed"`
}

type CourseProgress struct {
	Name      string `json:"name"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Analytics is the learner dashboard summary.
type Analytics struct {
	TotalLessonsCompleted int              `json:"totalLessonsCompleted"`
	TotalCoursesEnrolled  int              `json:"totalCoursesEnrolled"`
	AverageCompletionRate float64          `json:"averageCompletionRate"`
	WeeklyData            []DayCount       `json:"weeklyData"`
	MonthlyData           []WeekCount      `json:"monthlyData"`
	CourseProgress        []CourseProgress `json:"courseProgress"`
	CategoryData          []CategoryCount  `json:"categoryData"`
}
