package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/vhoang/folio/internal/contact"
	"github.com/vhoang/folio/internal/middlewares"
)

type ContactHandler struct {
	service    *contact.Service
	clientInfo middlewares.ClientInfoFunc
	resumePath string
}

func NewContactHandler(service *contact.Service, clientInfo middlewares.ClientInfoFunc, resumePath string) *ContactHandler {
	return &ContactHandler{
		service:    service,
		clientInfo: clientInfo,
		resumePath: resumePath,
	}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (h *ContactHandler) PostContact(ctx *fiber.Ctx) error {
	var req contactRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	client := h.clientInfo(ctx)
	reference, err := h.service.Submit(ctx.Context(), contact.SubmitInfo{
		IP:        client.IP,
		UserAgent: client.UserAgent,
	}, contact.Message{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(NewDataResponse(fiber.Map{
		"success":   true,
		"reference": reference,
	}))
}

func (h *ContactHandler) GetResume(ctx *fiber.Ctx) error {
	if h.resumePath == "" {
		return fiber.ErrNotFound
	}
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="resume.pdf"`)
	return ctx.SendFile(h.resumePath)
}
