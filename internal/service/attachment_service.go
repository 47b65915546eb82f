package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/itops/support-portal/internal/config"
	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/events"
	"github.com/itops/support-portal/internal/observability"
	"github.com/itops/support-portal/internal/repository"
	"github.com/itops/support-portal/internal/storage"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

// mimeExtensions pins each allowed MIME type to its expected file
// extensions so a mislabeled upload is rejected outright.
var mimeExtensions = map[string][]string{
	"application/pdf": {".pdf"},
	"image/png":       {".png"},
	"image/jpeg":      {".jpg", ".jpeg"},
}

// AttachmentService validates and stores ticket attachments. Validation
// failures never leave bytes or rows behind.
type AttachmentService struct {
	attachments repository.AttachmentRepository
	tickets     repository.TicketRepository
	files       storage.FileStore
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.AttachmentConfig
}

func NewAttachmentService(
	attachments repository.AttachmentRepository,
	tickets repository.TicketRepository,
	files storage.FileStore,
	dispatcher events.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg config.AttachmentConfig,
) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		attachments: attachments,
		tickets:     tickets,
		files:       files,
		dispatcher:  dispatcher,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// AttachmentUpload is one candidate upload.
type AttachmentUpload struct {
	FileName string
	MimeType string
	Size     int64
	Content  io.Reader
}

// Upload validates the candidate against the size and MIME allow-list,
// writes the bytes, then records the row. If the row insert fails the
// stored file is removed again.
func (s *AttachmentService) Upload(ctx context.Context, actor *domain.User, ticketID string, upload AttachmentUpload) (*domain.Attachment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.IsClosed() && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewTicketLocked("closed tickets do not accept attachments")
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionAttach); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	if err := s.validate(upload); err != nil {
		return nil, err
	}

	// Size was validated from the declared length; cap the actual read
	// too so a lying client cannot exceed the limit.
	content := io.LimitReader(upload.Content, s.cfg.MaxSizeBytes+1)
	buf := &bytes.Buffer{}
	n, err := io.Copy(buf, content)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}
	if n > s.cfg.MaxSizeBytes {
		return nil, apperrors.NewInvalidAttachment("file exceeds the maximum size", map[string]any{
			"max_size_bytes": s.cfg.MaxSizeBytes,
		})
	}

	ref, err := s.files.Save(ctx, upload.FileName, buf)
	if err != nil {
		return nil, apperrors.NewStorageError(err)
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		FileName:   filepath.Base(upload.FileName),
		ContentRef: ref,
		MimeType:   upload.MimeType,
		SizeBytes:  n,
		UploadedBy: actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if removeErr := s.files.Remove(ctx, ref); removeErr != nil {
			s.logger.Warn("orphaned attachment file after failed insert",
				zap.String("ref", ref), zap.Error(removeErr))
		}
		return nil, apperrors.NewStorageError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketAttachmentAdded,
		TicketID: ticket.ID,
		Actor:    eventActor(actor),
		Payload: events.TicketAttachmentAddedPayload{
			AttachmentID: attachment.ID,
			FileName:     attachment.FileName,
			SizeBytes:    attachment.SizeBytes,
		},
	})
	return attachment, nil
}

// List returns a ticket's attachment metadata for actors who may view
// the ticket.
func (s *AttachmentService) List(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Attachment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionView); !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Reason)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachments, nil
}

// Download streams an attachment's bytes to actors who may view the
// ticket it belongs to.
func (s *AttachmentService) Download(ctx context.Context, actor *domain.User, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	attachment, err := s.loadAttachment(ctx, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	ticket, err := s.loadTicket(ctx, attachment.TicketID)
	if err != nil {
		return nil, nil, err
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionView); !decision.Allowed {
		return nil, nil, apperrors.NewForbidden(decision.Reason)
	}
	reader, err := s.files.Open(ctx, attachment.ContentRef)
	if err != nil {
		return nil, nil, apperrors.NewStorageError(err)
	}
	return attachment, reader, nil
}

// Delete removes an attachment row and its stored bytes. Admin only.
func (s *AttachmentService) Delete(ctx context.Context, actor *domain.User, attachmentID string) error {
	attachment, err := s.loadAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	ticket, err := s.loadTicket(ctx, attachment.TicketID)
	if err != nil {
		return err
	}
	if decision := Allow(actor.Role, RelationshipsOf(actor, ticket), ActionDeleteAttachment); !decision.Allowed {
		return apperrors.NewForbidden(decision.Reason)
	}
	if err := s.attachments.Delete(ctx, attachmentID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.files.Remove(ctx, attachment.ContentRef); err != nil {
		s.logger.Warn("orphaned attachment file after delete",
			zap.String("ref", attachment.ContentRef), zap.Error(err))
	}
	return nil
}

func (s *AttachmentService) validate(upload AttachmentUpload) error {
	if strings.TrimSpace(upload.FileName) == "" {
		return apperrors.NewInvalidAttachment("file name is required", nil)
	}
	if upload.Size <= 0 {
		return apperrors.NewInvalidAttachment("file is empty", nil)
	}
	if upload.Size > s.cfg.MaxSizeBytes {
		return apperrors.NewInvalidAttachment("file exceeds the maximum size", map[string]any{
			"max_size_bytes": s.cfg.MaxSizeBytes,
			"size_bytes":     upload.Size,
		})
	}
	mime := strings.ToLower(strings.TrimSpace(upload.MimeType))
	if !s.mimeAllowed(mime) {
		return apperrors.NewInvalidAttachment("file type is not allowed", map[string]any{
			"mime_type": upload.MimeType,
			"allowed":   s.cfg.AllowedMimeTypes,
		})
	}
	if exts, known := mimeExtensions[mime]; known {
		ext := strings.ToLower(filepath.Ext(upload.FileName))
		if !containsString(exts, ext) {
			return apperrors.NewInvalidAttachment("file extension does not match its type", map[string]any{
				"mime_type": mime,
				"extension": ext,
			})
		}
	}
	return nil
}

func (s *AttachmentService) mimeAllowed(mime string) bool {
	for _, allowed := range s.cfg.AllowedMimeTypes {
		if strings.EqualFold(allowed, mime) {
			return true
		}
	}
	return false
}

func (s *AttachmentService) loadTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return ticket, nil
}

func (s *AttachmentService) loadAttachment(ctx context.Context, attachmentID string) (*domain.Attachment, error) {
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("attachment", map[string]any{"attachment_id": attachmentID})
		}
		return nil, apperrors.NewStorageError(err)
	}
	return attachment, nil
}

func (s *AttachmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	s.metrics.RecordEventPublished(string(event.Type))
	_ = s.dispatcher.Publish(ctx, event)
}

func containsString(vals []string, target string) bool {
	for _, v := range vals {
		if v == target {
			return true
		}
	}
	return false
}
