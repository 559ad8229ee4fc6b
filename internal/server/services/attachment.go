package services

import (
	"context"

	"github.com/journalapp/syncserver/internal/server/blob"
)

// AttachmentService moves attachment bytes in and out of the blob store and
// hands out presigned URLs for direct transfers.
type AttachmentService struct {
	blobs     blob.Store
	presigner blob.Presigner
}

// NewAttachmentService constructs the attachment service. presigner may be
// the same object as blobs when the backend supports presigning.
func NewAttachmentService(blobs blob.Store, presigner blob.Presigner) *AttachmentService {
	return &AttachmentService{blobs: blobs, presigner: presigner}
}

// Upload stores the content for an attachment id.
func (s *AttachmentService) Upload(ctx context.Context, id string, content []byte) error {
	return s.blobs.Put(ctx, id, content)
}

// Download returns the content for an attachment id, or common.ErrorNotFound.
func (s *AttachmentService) Download(ctx context.Context, id string) ([]byte, error) {
	return s.blobs.Get(ctx, id)
}

// UploadURL returns a presigned URL for uploading the attachment directly.
func (s *AttachmentService) UploadURL(ctx context.Context, id string) (string, error) {
	return s.presigner.PresignPut(ctx, id)
}

// DownloadURL returns a presigned URL for downloading the attachment directly.
func (s *AttachmentService) DownloadURL(ctx context.Context, id string) (string, error) {
	return s.presigner.PresignGet(ctx, id)
}
