package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/clinic-admin/internal/api/dto"
	"github.com/spec-kit/clinic-admin/internal/apiclient"
	"github.com/spec-kit/clinic-admin/internal/service"
	apperrors "github.com/spec-kit/clinic-admin/pkg/util/errorutil"
)

const maxAttachmentBytes = 10 << 20

// ChatHandler exposes support conversations.
type ChatHandler struct {
	registry *service.Registry
}

// NewChatHandler constructs handler.
func NewChatHandler(registry *service.Registry) *ChatHandler {
	return &ChatHandler{registry: registry}
}

// Conversations handles GET /api/chat/conversations.
func (h *ChatHandler) Conversations(c *fiber.Ctx) error {
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	convs, err := svc.Chat.Conversations(c.UserContext())
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, convs)
}

// Messages handles GET /api/chat/conversations/:id/messages.
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	msgs, err := svc.Chat.Messages(c.UserContext(), id, listParams(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, msgs)
}

// Send handles POST /api/chat/conversations/:id/messages. Multipart bodies
// may carry an "attachment" file.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	id, err := requireParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var attachment *apiclient.File
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if _, ferr := c.FormFile("attachment"); ferr == nil {
			file, err := formFile(c, "attachment", maxAttachmentBytes)
			if err != nil {
				return err
			}
			attachment = &file
		}
	}

	svc, err := servicesFor(c, h.registry)
	if err != nil {
		return err
	}
	msg, err := svc.Chat.Send(c.UserContext(), id, req.Body, attachment)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, msg)
}
