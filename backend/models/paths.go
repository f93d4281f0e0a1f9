package models

import "skillsync/backend/docstore"

const (
	CollectionUsers          = "users"
	CollectionCourses        = "courses"
	CollectionCredentials    = "credentials"
	CollectionFederatedLinks = "federatedLinks"

	subLessons        = "lessons"
	subEnrollments    = "enrollments"
	subLessonProgress = "lessonProgress"
)

func UserPath(uid string) string {
	return docstore.Join(CollectionUsers, uid)
}

func CoursePath(courseID string) string {
	return docstore.Join(CollectionCourses, courseID)
}

func LessonsCollection(courseID string) string {
	return docstore.Join(CollectionCourses, courseID, subLessons)
}

func LessonPath(courseID, lessonID string) string {
	return docstore.Join(LessonsCollection(courseID), lessonID)
}

func EnrollmentsCollection(uid string) string {
	return docstore.Join(CollectionUsers, uid, subEnrollments)
}

func EnrollmentPath(uid, courseID string) string {
	return docstore.Join(EnrollmentsCollection(uid), courseID)
}

func LessonProgressCollection(uid string) string {
	return docstore.Join(CollectionUsers, uid, subLessonProgress)
}

// LessonProgressID is "{courseId}_{lessonId}"; unenroll relies on the
// course id prefix.
func LessonProgressID(courseID, lessonID string) string {
	return courseID + "_" + lessonID
}

func LessonProgressPath(uid, courseID, lessonID string) string {
	return docstore.Join(LessonProgressCollection(uid), LessonProgressID(courseID, lessonID))
}

func CredentialPath(email string) string {
	return docstore.Join(CollectionCredentials, NormalizeEmail(email))
}

func FederatedLinkPath(provider, subject string) string {
	return docstore.Join(CollectionFederatedLinks, provider+"_"+subject)
}
