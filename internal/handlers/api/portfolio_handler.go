package api

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/vhoang/folio/internal/middlewares"
	"github.com/vhoang/folio/internal/portfolio"
)

type PortfolioHandler struct {
	service    *portfolio.Service
	clientInfo middlewares.ClientInfoFunc
}

func NewPortfolioHandler(service *portfolio.Service, clientInfo middlewares.ClientInfoFunc) *PortfolioHandler {
	return &PortfolioHandler{
		service:    service,
		clientInfo: clientInfo,
	}
}

func (h *PortfolioHandler) GetPortfolio(ctx *fiber.Ctx) error {
	record, err := h.service.Get(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(fiber.Map{
		"content":   json.RawMessage(record.Content),
		"updatedAt": record.UpdatedAt.UnixMilli(),
	}))
}

func (h *PortfolioHandler) PutPortfolio(ctx *fiber.Ctx) error {
	body := ctx.Body()
	if len(body) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Missing portfolio content")
	}

	client := h.clientInfo(ctx)
	record, err := h.service.Update(ctx.Context(), json.RawMessage(body), portfolio.UpdateInfo{
		IP:        client.IP,
		UserAgent: client.UserAgent,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(fiber.Map{
		"content":   json.RawMessage(record.Content),
		"updatedAt": record.UpdatedAt.UnixMilli(),
	}))
}
