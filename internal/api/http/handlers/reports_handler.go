package handlers

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/itops/support-portal/internal/auth"
	"github.com/itops/support-portal/internal/service"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// ReportsHandler exposes staff dashboards and exports.
type ReportsHandler struct {
	reports *service.ReportingService
	now     func() time.Time
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportingService, clock func() time.Time) *ReportsHandler {
	if clock == nil {
		clock = time.Now
	}
	return &ReportsHandler{reports: reports, now: clock}
}

// Counts GET /reports/counts?group_by=status|priority|assignee.
func (h *ReportsHandler) Counts(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	report, err := h.reports.Counts(c.Context(), actor, c.Query("group_by"), parseTicketQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// Activity GET /reports/activity?from=...&to=...
func (h *ReportsHandler) Activity(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	now := h.now()
	from := now.Add(-7 * 24 * time.Hour)
	to := now
	if t, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		from = t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		to = t
	}
	report, err := h.reports.ChangedInPeriod(c.Context(), actor, from, to)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// SLA GET /reports/sla.
func (h *ReportsHandler) SLA(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	overview, err := h.reports.SLAHealth(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": overview})
}

// Export GET /reports/export.csv.
func (h *ReportsHandler) Export(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	// An export covers every ticket matching the filters, not one page.
	filter := parseTicketQuery(c)
	filter.Limit = 0
	filter.Offset = 0
	buf := &bytes.Buffer{}
	if err := h.reports.ExportCSV(c.Context(), actor, filter, buf); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.csv"`)
	return c.Send(buf.Bytes())
}
