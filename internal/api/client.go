// Package api is the client for the REST collaborators of the chat
// subsystem: history fetch, message send, upload signing and the binary
// upload itself.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"mwork_chat/internal/models/chat"
	"mwork_chat/internal/wire"
	"mwork_chat/pkg/apperrors"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL, token string, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
		log:     log,
	}
}

// History fetches the ordered backlog of one conversation.
func (c *Client) History(ctx context.Context, conversationID string) ([]wire.Record, error) {
	var records []wire.Record
	endpoint := fmt.Sprintf("%s/api/v1/dialogs/%s/messages", c.baseURL, url.PathEscape(conversationID))
	if err := c.getJSON(ctx, endpoint, &records); err != nil {
		return nil, apperrors.NewHistoryLoadError(err, conversationID)
	}
	return records, nil
}

// SendMessageRequest - тело запроса на отправку сообщения.
type SendMessageRequest struct {
	ChatID      string            `json:"chatId"`
	Content     string            `json:"content"`
	Attachments []chat.Attachment `json:"attachments,omitempty"`
}

// Send submits a message and returns the server's canonical record.
func (c *Client) Send(ctx context.Context, conversationID, content string, attachments []chat.Attachment) (wire.Record, error) {
	body := SendMessageRequest{
		ChatID:      conversationID,
		Content:     content,
		Attachments: attachments,
	}
	var record wire.Record
	endpoint := c.baseURL + "/api/v1/messages"
	if err := c.postJSON(ctx, endpoint, body, &record); err != nil {
		return wire.Record{}, apperrors.NewSendFailure(err, "message send rejected")
	}
	return record, nil
}

// UploadCredentials is what the signing collaborator hands out for one
// upload.
type UploadCredentials struct {
	UploadURL  string            `json:"uploadUrl"`
	AuthFields map[string]string `json:"authFields"`
}

// SignUpload requests upload credentials for the given resource kind
// (chat_image, chat_file).
func (c *Client) SignUpload(ctx context.Context, resourceKind string) (UploadCredentials, error) {
	var creds UploadCredentials
	endpoint := fmt.Sprintf("%s/api/v1/uploads/sign?kind=%s", c.baseURL, url.QueryEscape(resourceKind))
	if err := c.getJSON(ctx, endpoint, &creds); err != nil {
		return UploadCredentials{}, apperrors.NewUploadFailure(err, "failed to sign upload")
	}
	if creds.UploadURL == "" {
		return UploadCredentials{}, apperrors.NewUploadFailure(nil, "signing response missing upload url")
	}
	return creds, nil
}

type uploadResponse struct {
	DurableURL string `json:"durableUrl"`
}

// Upload performs the binary upload against the signed URL and returns the
// durable URL of the stored blob.
func (c *Client) Upload(ctx context.Context, creds UploadCredentials, filename string, data io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, value := range creds.AuthFields {
		if err := writer.WriteField(field, value); err != nil {
			return "", apperrors.NewUploadFailure(err, "failed to build upload form")
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", apperrors.NewUploadFailure(err, "failed to build upload form")
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", apperrors.NewUploadFailure(err, "failed to read file")
	}
	if err := writer.Close(); err != nil {
		return "", apperrors.NewUploadFailure(err, "failed to build upload form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, creds.UploadURL, &buf)
	if err != nil {
		return "", apperrors.NewUploadFailure(err, "invalid upload url")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	res, err := c.http.Do(req)
	if err != nil {
		return "", apperrors.NewUploadFailure(err, "upload request failed")
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", apperrors.NewUploadFailure(statusError(res), "upload rejected by blob store")
	}

	var out uploadResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", apperrors.NewUploadFailure(err, "unreadable upload response")
	}
	if out.DurableURL == "" {
		return "", apperrors.NewUploadFailure(nil, "upload response missing durable url")
	}
	return out.DurableURL, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return statusError(res)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func statusError(res *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("unexpected status %d: %s", res.StatusCode, bytes.TrimSpace(body))
}
