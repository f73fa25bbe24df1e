// Package transport is the HTTP side of the conversation client: it speaks the
// server's /upload, /documents, /chat and /chat/stream endpoints.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"contextai-go/internal/config"
	"contextai-go/internal/conversation"
	"contextai-go/internal/model"
	"contextai-go/pkg/log"
	"contextai-go/pkg/stream"
)

const maxErrorBody = 512

// TransportError reports a request that did not produce a usable response.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Body)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Client implements conversation.Transport over HTTP.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	uploadTimeout time.Duration
	chatTimeout   time.Duration
}

var _ conversation.Transport = (*Client)(nil)

// NewClient creates a client for the server described by cfg. httpClient may
// be nil.
func NewClient(cfg config.ClientConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:    httpClient,
		uploadTimeout: cfg.UploadTimeout,
		chatTimeout:   cfg.ChatTimeout,
	}
}

// Upload posts the file as multipart field "file" and waits for processing.
func (c *Client) Upload(ctx context.Context, filename string, content []byte) (conversation.Document, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return conversation.Document{}, fmt.Errorf("failed to create multipart file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return conversation.Document{}, fmt.Errorf("failed to write multipart file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return conversation.Document{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	ctx, cancel := withTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return conversation.Document{}, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out model.UploadResponse
	if err := c.doJSON(req, "upload", &out); err != nil {
		return conversation.Document{}, err
	}
	if out.DocumentID == "" {
		return conversation.Document{}, &TransportError{Op: "upload", Body: "response carries no document_id"}
	}
	return conversation.Document{ID: out.DocumentID, Filename: out.FileName}, nil
}

// ListDocuments fetches the server catalog.
func (c *Client) ListDocuments(ctx context.Context) ([]conversation.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/documents", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents request: %w", err)
	}

	var out model.DocumentListResponse
	if err := c.doJSON(req, "documents", &out); err != nil {
		return nil, err
	}
	docs := make([]conversation.Document, 0, len(out.Documents))
	for _, d := range out.Documents {
		docs = append(docs, conversation.Document{ID: d.DocumentID, Filename: d.FileName})
	}
	return docs, nil
}

// Chat performs the non-streaming question call.
func (c *Client) Chat(ctx context.Context, chatReq model.ChatRequest) (model.ChatResponse, error) {
	ctx, cancel := withTimeout(ctx, c.chatTimeout)
	defer cancel()

	req, err := c.newChatRequest(ctx, "/chat", chatReq)
	if err != nil {
		return model.ChatResponse{}, err
	}
	var out model.ChatResponse
	if err := c.doJSON(req, "chat", &out); err != nil {
		return model.ChatResponse{}, err
	}
	return out, nil
}

// OpenChatStream starts POST /chat/stream and hands back the open body. The
// caller owns the body. Non-2xx statuses are returned as *TransportError and
// the body is closed. The chat timeout does not apply here because the
// stream outlives this call; bound it through ctx.
func (c *Client) OpenChatStream(ctx context.Context, chatReq model.ChatRequest) (io.ReadCloser, error) {
	req, err := c.newChatRequest(ctx, "/chat/stream", chatReq)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", stream.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "chat stream", Body: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError("chat stream", resp)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, &TransportError{Op: "chat stream", StatusCode: resp.StatusCode, Body: "response has no body"}
	}
	log.Debugf("chat stream opened, content-type: %s", resp.Header.Get("Content-Type"))
	return resp.Body, nil
}

func (c *Client) newChatRequest(ctx context.Context, path string, chatReq model.ChatRequest) (*http.Request, error) {
	if chatReq.ChatHistory == nil {
		chatReq.ChatHistory = []model.HistoryMessage{}
	}
	reqBytes, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) doJSON(req *http.Request, op string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Body: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func statusError(op string, resp *http.Response) *TransportError {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &TransportError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
