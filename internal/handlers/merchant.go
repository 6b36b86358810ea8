package handlers

import (
	"context"
	"errors"

	"disburse/internal/models"
	"disburse/internal/repositories"
	"disburse/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

type MerchantLookup interface {
	GetByReference(ctx context.Context, reference string) (*models.Merchant, error)
}

type DisbursementLister interface {
	ListByMerchant(ctx context.Context, merchantID uint, limit, offset int) ([]models.Disbursement, int64, error)
}

type PendingOrderSummary interface {
	Summary(ctx context.Context, merchantID uint) (repositories.PendingSummary, error)
}

type MerchantHandler struct {
	merchants     MerchantLookup
	disbursements DisbursementLister
	orders        PendingOrderSummary
	log           zerolog.Logger
}

func NewMerchantHandler(merchants MerchantLookup, disbursements DisbursementLister, orders PendingOrderSummary, log zerolog.Logger) *MerchantHandler {
	return &MerchantHandler{
		merchants:     merchants,
		disbursements: disbursements,
		orders:        orders,
		log:           log,
	}
}

func (h *MerchantHandler) merchant(c *fiber.Ctx) (*models.Merchant, error) {
	m, err := h.merchants.GetByReference(c.UserContext(), c.Params("reference"))
	if err != nil {
		if errors.Is(err, repositories.ErrMerchantNotFound) {
			return nil, utils.NotFound(c, "merchant not found")
		}
		h.log.Error().Err(err).Msg("merchant lookup failed")
		return nil, utils.InternalError(c, "failed to load merchant")
	}
	return m, nil
}

func (h *MerchantHandler) ListDisbursements(c *fiber.Ctx) error {
	m, err := h.merchant(c)
	if m == nil {
		return err
	}

	p := utils.GetPagination(c, 1, 20)
	disbursements, total, err := h.disbursements.ListByMerchant(c.UserContext(), m.ID, p.Limit, p.Offset)
	if err != nil {
		h.log.Error().Err(err).Uint("merchant_id", m.ID).Msg("failed to list disbursements")
		return utils.InternalError(c, "failed to list disbursements")
	}
	p.SetTotal(total)

	return utils.Success(c, utils.NewPaginatedResponse(disbursements, p))
}

func (h *MerchantHandler) PendingOrders(c *fiber.Ctx) error {
	m, err := h.merchant(c)
	if m == nil {
		return err
	}

	summary, err := h.orders.Summary(c.UserContext(), m.ID)
	if err != nil {
		h.log.Error().Err(err).Uint("merchant_id", m.ID).Msg("failed to summarise pending orders")
		return utils.InternalError(c, "failed to summarise pending orders")
	}

	return utils.Success(c, fiber.Map{
		"merchant_reference": m.Reference,
		"pending":            summary,
	})
}
