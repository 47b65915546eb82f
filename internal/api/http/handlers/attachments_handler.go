package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/itops/support-portal/internal/api/dto"
	"github.com/itops/support-portal/internal/auth"
	"github.com/itops/support-portal/internal/service"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// AttachmentsHandler exposes ticket attachments.
type AttachmentsHandler struct {
	attachments *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachments *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{attachments: attachments}
}

// Upload POST /tickets/:id/attachments (multipart form, field "file").
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("multipart field 'file' is required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	defer file.Close()

	attachment, err := h.attachments.Upload(c.Context(), actor, c.Params("id"), service.AttachmentUpload{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Content:  file,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewAttachmentResponse(attachment)})
}

// List GET /tickets/:id/attachments.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	attachments, err := h.attachments.List(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, dto.NewAttachmentResponse(&attachments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Download GET /attachments/:id.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	attachment, reader, err := h.attachments.Download(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, attachment.MimeType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	// fasthttp closes the stream once the response has been written.
	return c.SendStream(reader, int(attachment.SizeBytes))
}

// Delete DELETE /attachments/:id.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	actor, ok := auth.ActingUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.attachments.Delete(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
