package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itops/support-portal/internal/config"
	"github.com/itops/support-portal/internal/domain"
	"github.com/itops/support-portal/internal/observability"
	apperrors "github.com/itops/support-portal/pkg/util/errorutil"
)

type attachmentEnv struct {
	svc         *AttachmentService
	lifecycle   *lifecycleEnv
	attachments *fakeAttachmentRepo
	files       *fakeFileStore
}

func newAttachmentEnv(t *testing.T) *attachmentEnv {
	t.Helper()
	lifecycle := newLifecycleEnv(t)
	attachments := newFakeAttachmentRepo(lifecycle.clock)
	files := newFakeFileStore()
	svc := NewAttachmentService(
		attachments,
		lifecycle.tickets,
		files,
		lifecycle.dispatcher,
		observability.NewMetrics(),
		nil,
		config.AttachmentConfig{
			MaxSizeBytes:     10 * 1024 * 1024,
			AllowedMimeTypes: []string{"application/pdf", "image/png", "image/jpeg"},
		},
	)
	return &attachmentEnv{svc: svc, lifecycle: lifecycle, attachments: attachments, files: files}
}

func pdfUpload(size int64) AttachmentUpload {
	return AttachmentUpload{
		FileName: "invoice.pdf",
		MimeType: "application/pdf",
		Size:     size,
		Content:  strings.NewReader(strings.Repeat("x", int(size))),
	}
}

func TestUploadValidation(t *testing.T) {
	env := newAttachmentEnv(t)
	ctx := context.Background()
	ticket := env.lifecycle.createTicket(t, &env.lifecycle.requester)

	tests := []struct {
		name   string
		upload AttachmentUpload
	}{
		{
			name: "oversize file",
			upload: AttachmentUpload{
				FileName: "dump.pdf",
				MimeType: "application/pdf",
				Size:     50 * 1024 * 1024,
				Content:  strings.NewReader("payload"),
			},
		},
		{
			name: "disallowed mime type",
			upload: AttachmentUpload{
				FileName: "script.exe",
				MimeType: "application/octet-stream",
				Size:     128,
				Content:  strings.NewReader("payload"),
			},
		},
		{
			name: "extension does not match type",
			upload: AttachmentUpload{
				FileName: "photo.exe",
				MimeType: "image/png",
				Size:     128,
				Content:  strings.NewReader("payload"),
			},
		},
		{
			name: "empty file",
			upload: AttachmentUpload{
				FileName: "empty.pdf",
				MimeType: "application/pdf",
				Size:     0,
				Content:  strings.NewReader(""),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Upload(ctx, &env.lifecycle.requester, ticket.ID, tc.upload)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidAttachment), "got %v", err)

			rows, _ := env.attachments.ListByTicket(ctx, ticket.ID)
			assert.Empty(t, rows, "no metadata row may exist after a rejected upload")
			assert.Empty(t, env.files.files, "no bytes may be stored after a rejected upload")
		})
	}
}

func TestUploadStoresFileAndRow(t *testing.T) {
	env := newAttachmentEnv(t)
	ctx := context.Background()
	ticket := env.lifecycle.createTicket(t, &env.lifecycle.requester)

	attachment, err := env.svc.Upload(ctx, &env.lifecycle.requester, ticket.ID, pdfUpload(64))
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", attachment.FileName)
	assert.Equal(t, int64(64), attachment.SizeBytes)
	assert.Equal(t, env.lifecycle.requester.ID, attachment.UploadedBy)
	assert.NotEmpty(t, attachment.ContentRef)

	reader, err := env.files.Open(ctx, attachment.ContentRef)
	require.NoError(t, err)
	data, _ := io.ReadAll(reader)
	assert.Len(t, data, 64)
}

func TestUploadRemovesFileWhenRowInsertFails(t *testing.T) {
	env := newAttachmentEnv(t)
	ctx := context.Background()
	ticket := env.lifecycle.createTicket(t, &env.lifecycle.requester)
	env.attachments.failCreate = errors.New("insert failed")

	_, err := env.svc.Upload(ctx, &env.lifecycle.requester, ticket.ID, pdfUpload(32))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStorageError))
	assert.Empty(t, env.files.files)
	assert.Len(t, env.files.removed, 1)
}

func TestUploadClosedTicketLocked(t *testing.T) {
	env := newAttachmentEnv(t)
	ctx := context.Background()
	lc := env.lifecycle
	ticket := lc.resolveTicket(t, lc.startTicket(t, lc.createTicket(t, &lc.requester)))
	_, err := lc.svc.Transition(ctx, &lc.requester, TransitionInput{
		TicketID:  ticket.ID,
		NewStatus: domain.TicketStatusClosed,
	})
	require.NoError(t, err)

	_, err = env.svc.Upload(ctx, &lc.requester, ticket.ID, pdfUpload(16))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTicketLocked))

	// Admins may still attach to a closed ticket.
	_, err = env.svc.Upload(ctx, &lc.admin, ticket.ID, pdfUpload(16))
	require.NoError(t, err)
}

func TestUploadForeignTicketForbidden(t *testing.T) {
	env := newAttachmentEnv(t)
	ctx := context.Background()
	lc := env.lifecycle
	stranger := lc.users.add(domain.User{Name: "Vic", Email: "vic@example.com", Role: domain.RoleRequester, Active: true})
	ticket := lc.createTicket(t, &lc.requester)

	_, err := env.svc.Upload(ctx, &stranger, ticket.ID, pdfUpload(16))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}

func TestAttachmentDeleteAdminOnly(t *testing.T) {
	env := newAttachmentEnv(t)
	ctx := context.Background()
	lc := env.lifecycle
	ticket := lc.createTicket(t, &lc.requester)
	attachment, err := env.svc.Upload(ctx, &lc.requester, ticket.ID, pdfUpload(16))
	require.NoError(t, err)

	err = env.svc.Delete(ctx, &lc.requester, attachment.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	err = env.svc.Delete(ctx, &lc.admin, attachment.ID)
	require.NoError(t, err)
	assert.Empty(t, env.files.files)
	_, err = env.attachments.GetByID(ctx, attachment.ID)
	require.Error(t, err)
}

func TestAttachmentDownloadVisibility(t *testing.T) {
	env := newAttachmentEnv(t)
	ctx := context.Background()
	lc := env.lifecycle
	stranger := lc.users.add(domain.User{Name: "Wes", Email: "wes@example.com", Role: domain.RoleRequester, Active: true})
	ticket := lc.createTicket(t, &lc.requester)
	attachment, err := env.svc.Upload(ctx, &lc.requester, ticket.ID, pdfUpload(16))
	require.NoError(t, err)

	_, reader, err := env.svc.Download(ctx, &lc.requester, attachment.ID)
	require.NoError(t, err)
	reader.Close()

	_, _, err = env.svc.Download(ctx, &stranger, attachment.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}
