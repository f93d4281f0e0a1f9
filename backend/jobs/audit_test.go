package jobs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecounter struct {
	users, fixed int
	err          error
	calls        int
}

func (f *fakeRecounter) RecountAll(context.Context) (int, int, error) {
	f.calls++
	return f.users, f.fixed, f.err
}

func TestRunAuditLogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	RunAudit(context.Background(), &fakeRecounter{users: 3, fixed: 1}, time.Second, logger)
	assert.Contains(t, buf.String(), "[AUDIT] checked 3 users, corrected 1 enrollments")

	buf.Reset()
	RunAudit(context.Background(), &fakeRecounter{users: 1, err: errors.New("boom")}, 0, logger)
	assert.Contains(t, buf.String(), "[AUDIT] failed after 1 users: boom")
}

func TestNewAuditSchedulerValidatesSpec(t *testing.T) {
	logger := log.New(&bytes.Buffer{}, "", 0)

	_, err := NewAuditScheduler("not a schedule", &fakeRecounter{}, 0, logger)
	assert.Error(t, err)

	s, err := NewAuditScheduler("@every 1h", &fakeRecounter{}, 0, logger)
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
