// Package client is a typed HTTP client for the portal's messaging API. The
// chat session, conversation list and notification poller all talk to the
// store through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campusfind/lostfound/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid message status")
)

// ValidationError is raised before any request leaves the process.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TransientError wraps transport failures and 5xx responses. Polling loops
// treat these as retryable and move on to the next tick.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient fetch error: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Options configures a Client.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    httpClient,
	}
}

// SendMessageInput mirrors the POST /messages body.
type SendMessageInput struct {
	SenderID       uuid.UUID `json:"senderId"`
	SenderName     string    `json:"senderName"`
	SenderEmail    string    `json:"senderEmail"`
	RecipientID    uuid.UUID `json:"recipientId"`
	RecipientName  string    `json:"recipientName"`
	RecipientEmail string    `json:"recipientEmail"`
	Subject        string    `json:"subject"`
	Content        string    `json:"content"`
}

// SendMessage creates a message. Empty content and a missing recipient are
// rejected locally so a doomed request never hits the wire.
func (c *Client) SendMessage(ctx context.Context, in SendMessageInput) (models.Message, error) {
	if in.RecipientID == uuid.Nil {
		return models.Message{}, &ValidationError{Field: "recipientId", Reason: "recipient is required"}
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.Message{}, &ValidationError{Field: "content", Reason: "content must not be empty"}
	}

	var msg models.Message
	err := c.do(ctx, http.MethodPost, "/api/v1/messages", in, http.StatusCreated, &msg)
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Messages fetches the two-party thread with chatWith, or the full inbox when
// chatWith is uuid.Nil.
func (c *Client) Messages(ctx context.Context, userID, chatWith uuid.UUID) ([]models.Message, error) {
	params := url.Values{}
	params.Set("userId", userID.String())
	if chatWith != uuid.Nil {
		params.Set("chatWith", chatWith.String())
	}

	var msgs []models.Message
	err := c.do(ctx, http.MethodGet, "/api/v1/messages?"+params.Encode(), nil, http.StatusOK, &msgs)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flips the unread chatWith→userID messages and returns the count.
func (c *Client) MarkRead(ctx context.Context, userID, chatWith uuid.UUID) (int64, error) {
	body := map[string]string{
		"userId":   userID.String(),
		"chatWith": chatWith.String(),
	}

	var result struct {
		Updated int64 `json:"updated"`
	}
	err := c.do(ctx, http.MethodPut, "/api/v1/messages/mark-as-read", body, http.StatusOK, &result)
	if err != nil {
		return 0, err
	}
	return result.Updated, nil
}

// UpdateStatus advances a message's delivery state.
func (c *Client) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (models.Message, error) {
	if !models.ValidStatus(status) {
		return models.Message{}, ErrInvalidStatus
	}

	var msg models.Message
	err := c.do(ctx, http.MethodPut, "/api/v1/messages/"+id.String()+"/status",
		map[string]string{"status": status}, http.StatusOK, &msg)
	if err != nil {
		if errors.Is(err, errBadRequest) {
			return models.Message{}, ErrInvalidStatus
		}
		return models.Message{}, err
	}
	return msg, nil
}

// User looks up a profile by id.
func (c *Client) User(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/api/v1/users/"+id.String(), nil, http.StatusOK, &user)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// errBadRequest lets callers map a 400 onto an operation-specific error.
var errBadRequest = errors.New("bad request")

func (c *Client) do(ctx context.Context, method, path string, body interface{}, wantStatus int, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == wantStatus:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransientError{Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", errBadRequest, readErrorEnvelope(resp))
	case resp.StatusCode >= http.StatusInternalServerError:
		return &TransientError{Err: fmt.Errorf("server returned %d", resp.StatusCode)}
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, readErrorEnvelope(resp))
	}
}

func readErrorEnvelope(resp *http.Response) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
		return "no detail"
	}
	return envelope.Error
}
