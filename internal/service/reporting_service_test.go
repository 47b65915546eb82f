package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/repository"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

func newReportingEnv(t *testing.T) (*ReportingService, *lifecycleEnv) {
	t.Helper()
	lifecycle := newLifecycleEnv(t)
	svc := NewReportingService(lifecycle.tickets, lifecycle.audit, lifecycle.clock.Now)
	return svc, lifecycle
}

func TestCountsGrouping(t *testing.T) {
	svc, lc := newReportingEnv(t)
	ctx := context.Background()

	lc.createTicket(t, &lc.requester)
	lc.startTicket(t, lc.createTicket(t, &lc.requester))

	report, err := svc.Counts(ctx, &lc.agent, "status", repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Counts["OPEN"])
	assert.Equal(t, int64(1), report.Counts["IN_PROGRESS"])

	byAssignee, err := svc.Counts(ctx, &lc.agent, "assignee", repository.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byAssignee.Counts[lc.agent.ID])
	assert.Equal(t, int64(1), byAssignee.Counts[""])

	_, err = svc.Counts(ctx, &lc.agent, "severity", repository.TicketFilter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))

	_, err = svc.Counts(ctx, &lc.requester, "status", repository.TicketFilter{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestChangedInPeriod(t *testing.T) {
	svc, lc := newReportingEnv(t)
	ctx := context.Background()

	start := lc.clock.Now()
	lc.startTicket(t, lc.createTicket(t, &lc.requester))
	lc.createTicket(t, &lc.requester)
	end := lc.clock.Now()

	report, err := svc.ChangedInPeriod(ctx, &lc.admin, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.TicketsChanged)
	assert.Equal(t, int64(2), report.TicketsCreated)

	_, err = svc.ChangedInPeriod(ctx, &lc.admin, end, start)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestSLAHealth(t *testing.T) {
	svc, lc := newReportingEnv(t)
	ctx := context.Background()

	lc.createTicket(t, &lc.requester)

	overview, err := svc.SLAHealth(ctx, &lc.agent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.OpenTotal)
	assert.Equal(t, int64(1), overview.Met)

	// Past the at-risk window but before the due date.
	lc.clock.Advance(20 * time.Hour)
	overview, err = svc.SLAHealth(ctx, &lc.agent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.AtRisk)

	// Past the due date entirely.
	lc.clock.Advance(10 * time.Hour)
	overview, err = svc.SLAHealth(ctx, &lc.agent)
	require.NoError(t, err)
	assert.Equal(t, int64(1), overview.Breached)
}

func TestReportingReadsBeyondOnePage(t *testing.T) {
	svc, lc := newReportingEnv(t)
	ctx := context.Background()

	const total = 25
	for i := 0; i < total; i++ {
		lc.createTicket(t, &lc.requester)
	}

	overview, err := svc.SLAHealth(ctx, &lc.agent)
	require.NoError(t, err)
	assert.Equal(t, int64(total), overview.OpenTotal)
	assert.Equal(t, int64(total), overview.Met)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &lc.agent, repository.TicketFilter{}, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, total+1)
}

func TestExportCSV(t *testing.T) {
	svc, lc := newReportingEnv(t)
	ctx := context.Background()
	lc.createTicket(t, &lc.requester)
	lc.startTicket(t, lc.createTicket(t, &lc.requester))

	buf := &bytes.Buffer{}
	err := svc.ExportCSV(ctx, &lc.admin, repository.TicketFilter{}, buf)
	require.NoError(t, err)

	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "key", records[0][0])
	assert.Equal(t, "status", records[0][2])
	for _, row := range records[1:] {
		assert.Contains(t, []string{"OPEN", "IN_PROGRESS"}, row[2])
	}

	err = svc.ExportCSV(ctx, &lc.requester, repository.TicketFilter{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestStatusValuesRoundTrip(t *testing.T) {
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	} {
		assert.True(t, status.Valid())
	}
	assert.False(t, domain.TicketStatus("ARCHIVED").Valid())
}
