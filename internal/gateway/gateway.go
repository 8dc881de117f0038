// Package gateway is the typed client for the email-agent backend.
// Every mutation returns the server's authoritative snapshot; callers
// replace local state with it rather than merging.
package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/model"
)

// Processing task names accepted by ProcessEmail.
const (
	TaskCategorize    = "categorize"
	TaskExtractTasks  = "extract_tasks"
	TaskGenerateDraft = "generate_draft"
)

// AnalyzeTasks is the "analyze" preset: categorize and extract tasks.
func AnalyzeTasks() []string {
	return []string{TaskCategorize, TaskExtractTasks}
}

// AnalyzeDraftTasks is the "analyze + draft" preset.
func AnalyzeDraftTasks() []string {
	return []string{TaskCategorize, TaskExtractTasks, TaskGenerateDraft}
}

// Gateway exposes the backend API as typed operations.
type Gateway struct {
	client *Client
}

// New creates a Gateway for the backend at baseURL.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Gateway {
	return &Gateway{client: NewClient(baseURL, timeout, logger)}
}

// NewWithClient wraps an existing Client; used by tests.
func NewWithClient(c *Client) *Gateway {
	return &Gateway{client: c}
}

// ListEmails fetches all emails, optionally filtered by category.
// An empty category means unfiltered.
func (g *Gateway) ListEmails(ctx context.Context, category string) ([]model.Email, error) {
	path := "/api/emails"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var emails []model.Email
	if err := g.client.Get(ctx, path, &emails); err != nil {
		return nil, fmt.Errorf("listing emails: %w", err)
	}
	return emails, nil
}

// GetEmail fetches a single email by ID.
func (g *Gateway) GetEmail(ctx context.Context, id int) (*model.Email, error) {
	var email model.Email
	if err := g.client.Get(ctx, fmt.Sprintf("/api/emails/%d", id), &email); err != nil {
		return nil, fmt.Errorf("getting email %d: %w", id, err)
	}
	return &email, nil
}

// MarkRead marks an email as read. Idempotent server-side.
func (g *Gateway) MarkRead(ctx context.Context, id int) error {
	if err := g.client.Put(ctx, fmt.Sprintf("/api/emails/%d/read", id), nil, nil); err != nil {
		return fmt.Errorf("marking email %d read: %w", id, err)
	}
	return nil
}

// processRequest is the body for the process endpoint.
type processRequest struct {
	EmailID int      `json:"email_id"`
	Tasks   []string `json:"tasks"`
}

// processResponse wraps the updated email snapshot. The per-task
// results payload also returned by the backend is redundant with the
// snapshot and is not surfaced.
type processResponse struct {
	Email model.Email `json:"email"`
}

// ProcessEmail runs the given analysis tasks on an email and returns
// the updated authoritative snapshot.
func (g *Gateway) ProcessEmail(ctx context.Context, id int, tasks []string) (*model.Email, error) {
	req := processRequest{EmailID: id, Tasks: tasks}

	var resp processResponse
	if err := g.client.Post(ctx, fmt.Sprintf("/api/emails/%d/process", id), req, &resp); err != nil {
		return nil, fmt.Errorf("processing email %d: %w", id, err)
	}
	return &resp.Email, nil
}

// ListDrafts fetches drafts in creation order, optionally filtered to
// one email. emailID <= 0 means unfiltered.
func (g *Gateway) ListDrafts(ctx context.Context, emailID int) ([]model.Draft, error) {
	path := "/api/drafts"
	if emailID > 0 {
		path += fmt.Sprintf("?email_id=%d", emailID)
	}

	var drafts []model.Draft
	if err := g.client.Get(ctx, path, &drafts); err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	return drafts, nil
}

// GetDraft fetches a single draft by ID.
func (g *Gateway) GetDraft(ctx context.Context, id int) (*model.Draft, error) {
	var draft model.Draft
	if err := g.client.Get(ctx, fmt.Sprintf("/api/drafts/%d", id), &draft); err != nil {
		return nil, fmt.Errorf("getting draft %d: %w", id, err)
	}
	return &draft, nil
}

// ListPrompts fetches all prompt templates.
func (g *Gateway) ListPrompts(ctx context.Context) ([]model.PromptTemplate, error) {
	var prompts []model.PromptTemplate
	if err := g.client.Get(ctx, "/api/prompts", &prompts); err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}
	return prompts, nil
}

// PromptFields are the writable prompt template fields for create/update.
type PromptFields struct {
	Name       string `json:"name"`
	PromptType string `json:"prompt_type"`
	Content    string `json:"content"`
	IsActive   bool   `json:"is_active"`
}

// CreatePrompt creates a new prompt template. Fails when the name is
// already taken; the caller surfaces that as a recoverable form error.
func (g *Gateway) CreatePrompt(ctx context.Context, fields PromptFields) (*model.PromptTemplate, error) {
	var prompt model.PromptTemplate
	if err := g.client.Post(ctx, "/api/prompts", fields, &prompt); err != nil {
		return nil, fmt.Errorf("creating prompt: %w", err)
	}
	return &prompt, nil
}

// UpdatePrompt updates an existing prompt template.
func (g *Gateway) UpdatePrompt(ctx context.Context, id int, fields PromptFields) (*model.PromptTemplate, error) {
	var prompt model.PromptTemplate
	if err := g.client.Put(ctx, fmt.Sprintf("/api/prompts/%d", id), fields, &prompt); err != nil {
		return nil, fmt.Errorf("updating prompt %d: %w", id, err)
	}
	return &prompt, nil
}

// DeletePrompt deletes a prompt template by ID.
func (g *Gateway) DeletePrompt(ctx context.Context, id int) error {
	if err := g.client.Delete(ctx, fmt.Sprintf("/api/prompts/%d", id)); err != nil {
		return fmt.Errorf("deleting prompt %d: %w", id, err)
	}
	return nil
}

// chatRequest is the body for the chat endpoint.
type chatRequest struct {
	Message string `json:"message"`
	Context string `json:"context,omitempty"`
}

// chatResponse carries the assistant's reply.
type chatResponse struct {
	Response string `json:"response"`
}

// SendChat sends a message to the inbox assistant and returns its
// reply. The call is stateless server-side; the transcript lives in
// the client.
func (g *Gateway) SendChat(ctx context.Context, message string) (string, error) {
	req := chatRequest{Message: message}

	var resp chatResponse
	if err := g.client.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("sending chat message: %w", err)
	}
	return resp.Response, nil
}

// GetStats fetches the aggregate counter snapshot.
func (g *Gateway) GetStats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := g.client.Get(ctx, "/api/stats", &stats); err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return &stats, nil
}
