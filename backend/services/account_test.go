package services_test

import (
	"context"
	"testing"

	"skillsync/backend/docstore"
	"skillsync/backend/identity"
	"skillsync/backend/models"
	"skillsync/backend/services"
	"skillsync/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRemover struct {
	uid, email string
}

func (r *recordingRemover) RemoveIdentities(_ context.Context, uid, email string) error {
	r.uid, r.email = uid, email
	return nil
}

func TestEnrollCopiesCourse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseID := f.course(t, 2)

	e, err := f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)
	assert.Equal(t, "Go Basics", e.CourseTitle)
	assert.Equal(t, "Rob", e.Instructor)
	assert.Equal(t, 2, e.TotalLessons)
	assert.Equal(t, 0, e.CompletedLessons)
	assert.Equal(t, f.clock.Now(), e.EnrolledAt)

	_, err = f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	assert.ErrorIs(t, err, services.ErrAlreadyEnrolled)

	_, err = f.svc.Enrollments.Enroll(ctx, f.sess, "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestUnenrollCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	courseA := f.course(t, 2)
	courseB := f.course(t, 2)

	for _, c := range []string{courseA, courseB} {
		_, err := f.svc.Enrollments.Enroll(ctx, f.sess, c)
		require.NoError(t, err)
		_, err = f.svc.Progress.Toggle(ctx, f.sess, c, "lesson-1")
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.Enrollments.Unenroll(ctx, f.sess, courseA))

	_, err := f.store.Get(ctx, models.EnrollmentPath(f.sess.UserID, courseA))
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	assert.Equal(t, 0, f.completedRecords(t, courseA))
	assert.Equal(t, 1, f.completedRecords(t, courseB))

	list, err := f.svc.Enrollments.List(ctx, f.sess)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, courseB, list[0].CourseID)

	// unenrolling again is harmless
	assert.NoError(t, f.svc.Enrollments.Unenroll(ctx, f.sess, courseA))
}

func TestEnsureProfileDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Accounts.EnsureProfile(ctx, &identity.Identity{UID: "u1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Name)
	assert.Equal(t, models.RoleLearner, u.Role)

	u, err = f.svc.Accounts.EnsureProfile(ctx, &identity.Identity{UID: "u2"})
	require.NoError(t, err)
	assert.Equal(t, "User", u.Name)

	admin, err := f.svc.Accounts.EnsureProfile(ctx, &identity.Identity{UID: "u3", Email: "Admin@Example.com", DisplayName: "Boss"})
	require.NoError(t, err)
	assert.Equal(t, "Boss", admin.Name)
	assert.True(t, admin.IsAdmin())

	// an existing profile keeps its edited name
	_, err = f.svc.Accounts.UpdateName(ctx, &services.Session{UserID: "u1"}, "Ada L.")
	require.NoError(t, err)
	u, err = f.svc.Accounts.EnsureProfile(ctx, &identity.Identity{UID: "u1", Email: "ada@example.com", DisplayName: "Google Ada", PhotoURL: "http://img"})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", u.Name)
	assert.Equal(t, "http://img", u.Avatar)
}

func TestProfileUpdates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Accounts.GetProfile(ctx, f.sess)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	_, err = f.svc.Accounts.UpdateName(ctx, f.sess, "Ada")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	_, err = f.svc.Accounts.EnsureProfile(ctx, &identity.Identity{UID: f.sess.UserID, Email: f.sess.Email})
	require.NoError(t, err)
	u, err := f.svc.Accounts.GetProfile(ctx, f.sess)
	require.NoError(t, err)
	assert.Equal(t, "learner", u.Name)

	u, err = f.svc.Accounts.UpdateAvatar(ctx, f.sess, "data:image/png;base64,iVBORw0KGgo=")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", u.Avatar)

	_, err = f.svc.Accounts.UpdateAvatar(ctx, f.sess, "https://example.com/a.png")
	assert.ErrorIs(t, err, services.ErrInvalidAvatar)
}

func TestPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Accounts.EnsureProfile(ctx, &identity.Identity{UID: f.sess.UserID, Email: f.sess.Email})
	require.NoError(t, err)

	u, err := f.svc.Accounts.Promote(ctx, f.sess.UserID, models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())

	role, err := f.svc.Accounts.Role(ctx, f.sess.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	_, err = f.svc.Accounts.Promote(ctx, f.sess.UserID, "root")
	assert.ErrorIs(t, err, services.ErrInvalidRole)
	_, err = f.svc.Accounts.Promote(ctx, "ghost", models.RoleAdmin)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestDeleteAccountCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	remover := &recordingRemover{}
	accounts := services.NewAccounts(f.store, remover, "", testutil.Logger())

	courseID := f.course(t, 2)
	_, err := accounts.EnsureProfile(ctx, &identity.Identity{UID: f.sess.UserID, Email: f.sess.Email})
	require.NoError(t, err)
	_, err = f.svc.Enrollments.Enroll(ctx, f.sess, courseID)
	require.NoError(t, err)
	_, err = f.svc.Progress.Toggle(ctx, f.sess, courseID, "lesson-1")
	require.NoError(t, err)

	other := &services.Session{UserID: "user-2"}
	_, err = f.svc.Enrollments.Enroll(ctx, other, courseID)
	require.NoError(t, err)

	require.NoError(t, accounts.DeleteAccount(ctx, f.sess))

	_, err = f.store.Get(ctx, models.UserPath(f.sess.UserID))
	assert.ErrorIs(t, err, docstore.ErrNotFound)
	enrollments, err := f.store.List(ctx, models.EnrollmentsCollection(f.sess.UserID))
	require.NoError(t, err)
	assert.Empty(t, enrollments)
	progress, err := f.store.List(ctx, models.LessonProgressCollection(f.sess.UserID))
	require.NoError(t, err)
	assert.Empty(t, progress)

	assert.Equal(t, f.sess.UserID, remover.uid)
	assert.Equal(t, "learner@example.com", remover.email)

	// other learners and the catalog are untouched
	_, err = f.store.Get(ctx, models.EnrollmentPath("user-2", courseID))
	assert.NoError(t, err)
	_, err = f.svc.Catalog.GetCourseRecord(ctx, courseID)
	assert.NoError(t, err)
}
