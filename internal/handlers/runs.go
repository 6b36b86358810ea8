package handlers

import (
	"context"
	"errors"

	"disburse/internal/models"
	"disburse/internal/scheduler"
	"disburse/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type RunTrigger interface {
	RunOnce(ctx context.Context) (*models.RunReport, error)
}

type RunReports interface {
	LastRunReport(ctx context.Context) (*models.RunReport, error)
	RunReport(ctx context.Context, id string) (*models.RunReport, error)
}

type RunHandler struct {
	runs    RunTrigger
	reports RunReports
	log     zerolog.Logger
}

func NewRunHandler(runs RunTrigger, reports RunReports, log zerolog.Logger) *RunHandler {
	return &RunHandler{
		runs:    runs,
		reports: reports,
		log:     log,
	}
}

// TriggerRun runs the disbursement engine now and returns its report.
func (h *RunHandler) TriggerRun(c *fiber.Ctx) error {
	operator := "unknown"
	if claims, err := utils.GetOperatorClaims(c); err == nil {
		operator = claims.Subject
	}
	h.log.Info().Str("operator", operator).Msg("manual disbursement run requested")

	report, err := h.runs.RunOnce(c.UserContext())
	if errors.Is(err, scheduler.ErrRunInProgress) {
		return utils.Conflict(c, err.Error())
	}
	if err != nil {
		h.log.Error().Err(err).Msg("manual disbursement run failed")
		if report != nil {
			return utils.Respond(c, fiber.StatusInternalServerError, fiber.Map{"error": err.Error(), "report": report})
		}
		return utils.InternalError(c, "disbursement run failed")
	}
	return utils.Success(c, report)
}

func (h *RunHandler) LastRun(c *fiber.Ctx) error {
	report, err := h.reports.LastRunReport(c.UserContext())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load last run report")
		return utils.InternalError(c, "failed to load last run report")
	}
	if report == nil {
		return utils.NotFound(c, "no run recorded yet")
	}
	return utils.Success(c, report)
}

// GetRun returns the report of one run by id.
func (h *RunHandler) GetRun(c *fiber.Ctx) error {
	id := c.Params("id")
	report, err := h.reports.RunReport(c.UserContext(), id)
	if err != nil {
		h.log.Error().Err(err).Str("run_id", id).Msg("failed to load run report")
		return utils.InternalError(c, "failed to load run report")
	}
	if report == nil {
		return utils.NotFound(c, "run not found")
	}
	return utils.Success(c, report)
}
