// Package seed loads a YAML course catalog into the store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log"
	"os"

	"skillsync/backend/services"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Catalog struct {
	Courses []CourseEntry `yaml:"courses"`
}

type CourseEntry struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Instructor  string   `yaml:"instructor"`
	Lessons     []string `yaml:"lessons"`
	// LessonCount pads Lessons with "Lesson N" titles up to this many.
	LessonCount int `yaml:"lessonCount"`
}

type Result struct {
	Removed int
	Created int
	Skipped int
	Lessons int
}

func Default() (*Catalog, error) {
	return Parse(bytes.NewReader(defaultCatalog))
}

func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, course := range c.Courses {
		if course.Title == "" || course.Instructor == "" {
			return nil, fmt.Errorf("parse catalog: course %d needs a title and an instructor", i+1)
		}
	}
	return &c, nil
}

// titles returns the lesson titles, padded to LessonCount.
func (s CourseEntry) titles() []string {
	titles := append([]string(nil), s.Lessons...)
	for n := len(titles) + 1; n <= s.LessonCount; n++ {
		titles = append(titles, fmt.Sprintf("Lesson %d", n))
	}
	return titles
}

// Apply creates every course of c that is not already present by title.
// With replace set the existing catalog is deleted first.
func Apply(ctx context.Context, catalog *services.Catalog, c *Catalog, replace bool, logger *log.Logger) (*Result, error) {
	res := &Result{}

	existing, err := catalog.AllCourses(ctx)
	if err != nil {
		return nil, err
	}
	byTitle := make(map[string]bool, len(existing))
	if replace {
		logger.Printf("[SEED] clearing %d existing courses", len(existing))
		for _, course := range existing {
			if err := catalog.DeleteCourse(ctx, course.ID); err != nil {
				return res, err
			}
			res.Removed++
		}
	} else {
		for _, course := range existing {
			byTitle[course.Title] = true
		}
	}

	for _, entry := range c.Courses {
		if byTitle[entry.Title] {
			res.Skipped++
			continue
		}

		course, err := catalog.CreateCourse(ctx, services.CourseInput{
			Title:       entry.Title,
			Description: entry.Description,
			Instructor:  entry.Instructor,
		})
		if err != nil {
			return res, err
		}
		res.Created++
		logger.Printf("[SEED] created course %s (%s)", entry.Title, course.ID)

		for i, title := range entry.titles() {
			n := i + 1
			_, err := catalog.CreateLesson(ctx, course.ID, services.LessonInput{
				Title:       title,
				Description: fmt.Sprintf("Complete lesson %d of this course", n),
				Content: fmt.Sprintf("Welcome to %s. In this lesson, we will explore key concepts and practical examples related to %s.",
					title, entry.Title),
			})
			if err != nil {
				return res, err
			}
			res.Lessons++
		}
	}
	return res, nil
}
