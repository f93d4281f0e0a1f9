package services

import (
	"log"
	"time"

	"skillsync/backend/docstore"
	"skillsync/backend/notify"
)

// Services bundles the operations the HTTP layer and the CLI drive.
type Services struct {
	Catalog     *Catalog
	Enrollments *Enrollments
	Progress    *Reconciler
	Accounts    *Accounts
	Analytics   *Analytics
}

func New(store *docstore.Store, identities IdentityRemover, notifier notify.Notifier, bootstrapAdminEmail string, logger *log.Logger) *Services {
	return &Services{
		Catalog:     NewCatalog(store, logger),
		Enrollments: NewEnrollments(store, logger),
		Progress:    NewReconciler(store, notifier, logger),
		Accounts:    NewAccounts(store, identities, bootstrapAdminEmail, logger),
		Analytics:   NewAnalytics(store),
	}
}

// SetClock makes every service read time from fn.
func (s *Services) SetClock(fn func() time.Time) {
	s.Catalog.Now = fn
	s.Enrollments.Now = fn
	s.Progress.Now = fn
	s.Accounts.Now = fn
	s.Analytics.Now = fn
}
