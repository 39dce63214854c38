// Package attachments decouples "user picked a file" from "message is
// sendable": synchronous local preview first, async signed upload on
// commit.
package attachments

import (
	"bytes"
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mwork_chat/internal/api"
	"mwork_chat/internal/models/chat"
	"mwork_chat/pkg/apperrors"
)

// ResourceKinds the signing collaborator distinguishes.
const (
	ResourceKindImage = "chat_image"
	ResourceKindFile  = "chat_file"
)

// Uploader is the slice of the api client the pipeline needs.
type Uploader interface {
	SignUpload(ctx context.Context, resourceKind string) (api.UploadCredentials, error)
	Upload(ctx context.Context, creds api.UploadCredentials, filename string, data io.Reader) (string, error)
}

// LocalPreview is what the UI can render immediately after file selection,
// before any network I/O.
type LocalPreview struct {
	ID        string
	Name      string
	Kind      chat.AttachmentKind
	Size      int64
	SizeLabel string

	data []byte
}

// Data returns a fresh reader over the held file contents, so a failed
// commit can be retried.
func (p LocalPreview) Data() io.Reader {
	return bytes.NewReader(p.data)
}

type Pipeline struct {
	uploads Uploader
	maxSize int64
	log     *zap.Logger
}

func NewPipeline(uploads Uploader, maxSize int64, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{uploads: uploads, maxSize: maxSize, log: log}
}

// Select builds a local preview. Synchronous, no network; the only failure
// is a file over the configured size limit.
func (p *Pipeline) Select(name string, data io.Reader) (LocalPreview, error) {
	contents, err := io.ReadAll(data)
	if err != nil {
		return LocalPreview{}, apperrors.NewUploadFailure(err, "failed to read selected file")
	}
	size := int64(len(contents))
	if p.maxSize > 0 && size > p.maxSize {
		return LocalPreview{}, apperrors.ErrLimitExceeded("upload",
			"file exceeds the maximum size of "+chat.FormatSize(p.maxSize))
	}
	return LocalPreview{
		ID:        uuid.New().String(),
		Name:      name,
		Kind:      chat.KindForName(name),
		Size:      size,
		SizeLabel: chat.FormatSize(size),
		data:      contents,
	}, nil
}

// Commit requests signing credentials, uploads the binary and returns the
// durable attachment. Only after Commit succeeds may the enclosing message
// proceed to the send path.
func (p *Pipeline) Commit(ctx context.Context, preview LocalPreview) (chat.Attachment, error) {
	kind := ResourceKindFile
	if preview.Kind == chat.KindImage {
		kind = ResourceKindImage
	}
	creds, err := p.uploads.SignUpload(ctx, kind)
	if err != nil {
		return chat.Attachment{}, err
	}
	durableURL, err := p.uploads.Upload(ctx, creds, preview.Name, preview.Data())
	if err != nil {
		return chat.Attachment{}, err
	}
	p.log.Debug("attachment committed",
		zap.String("name", preview.Name),
		zap.String("url", durableURL))
	return chat.Attachment{
		Kind:      preview.Kind,
		URL:       durableURL,
		Name:      preview.Name,
		SizeLabel: preview.SizeLabel,
	}, nil
}
