// Package testutil provides an in-memory fake of the email-agent
// backend for exercising the gateway and the view models without a
// real server.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dqtran/inboxagent/internal/gateway"
	"github.com/dqtran/inboxagent/internal/model"
)

// FakeBackend is an in-memory stand-in for the backend API. Failure
// toggles let tests drive the error paths deterministically.
type FakeBackend struct {
	mu sync.Mutex

	Emails  []model.Email
	Drafts  []model.Draft
	Prompts []model.PromptTemplate

	ChatReply string

	FailProcess  bool
	FailChat     bool
	FailMarkRead bool

	nextDraftID  int
	nextPromptID int

	server *httptest.Server
}

// NewServer starts a fake backend and returns it with a gateway wired
// to it. Both are torn down when the test completes.
func NewServer(t *testing.T) (*FakeBackend, *gateway.Gateway) {
	t.Helper()

	fb := &FakeBackend{
		ChatReply:    "You have a tidy inbox.",
		nextDraftID:  1,
		nextPromptID: 1,
	}
	fb.server = httptest.NewServer(fb)
	t.Cleanup(fb.server.Close)

	gw := gateway.New(fb.server.URL, 5*time.Second, zap.NewNop())
	return fb, gw
}

// URL returns the fake backend's base URL.
func (fb *FakeBackend) URL() string {
	return fb.server.URL
}

// SeedEmail adds an email to the fake inbox.
func (fb *FakeBackend) SeedEmail(email model.Email) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.Emails = append(fb.Emails, email)
}

// SeedPrompt adds a prompt template, assigning it an ID.
func (fb *FakeBackend) SeedPrompt(p model.PromptTemplate) model.PromptTemplate {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	p.ID = fb.nextPromptID
	fb.nextPromptID++
	fb.Prompts = append(fb.Prompts, p)
	return p
}

// EmailByID returns a copy of the stored email, or nil.
func (fb *FakeBackend) EmailByID(id int) *model.Email {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, e := range fb.Emails {
		if e.ID == id {
			cp := e
			return &cp
		}
	}
	return nil
}

// ServeHTTP implements the backend's REST surface.
func (fb *FakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/api/emails" && r.Method == http.MethodGet:
		fb.listEmails(w, r)
	case strings.HasSuffix(path, "/read") && r.Method == http.MethodPut:
		fb.markRead(w, r)
	case strings.HasSuffix(path, "/process") && r.Method == http.MethodPost:
		fb.processEmail(w, r)
	case strings.HasPrefix(path, "/api/emails/") && r.Method == http.MethodGet:
		fb.getEmail(w, r)
	case path == "/api/drafts" && r.Method == http.MethodGet:
		fb.listDrafts(w, r)
	case strings.HasPrefix(path, "/api/drafts/") && r.Method == http.MethodGet:
		fb.getDraft(w, r)
	case path == "/api/prompts" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, fb.Prompts)
	case path == "/api/prompts" && r.Method == http.MethodPost:
		fb.createPrompt(w, r)
	case strings.HasPrefix(path, "/api/prompts/") && r.Method == http.MethodPut:
		fb.updatePrompt(w, r)
	case strings.HasPrefix(path, "/api/prompts/") && r.Method == http.MethodDelete:
		fb.deletePrompt(w, r)
	case path == "/api/chat" && r.Method == http.MethodPost:
		fb.chat(w, r)
	case path == "/api/stats" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, fb.stats())
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (fb *FakeBackend) listEmails(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	out := make([]model.Email, 0, len(fb.Emails))
	for _, e := range fb.Emails {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (fb *FakeBackend) getEmail(w http.ResponseWriter, r *http.Request) {
	id := trailingID(r.URL.Path)
	for _, e := range fb.Emails {
		if e.ID == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Email not found")
}

func (fb *FakeBackend) markRead(w http.ResponseWriter, r *http.Request) {
	if fb.FailMarkRead {
		writeError(w, http.StatusInternalServerError, "mark-read unavailable")
		return
	}

	id := pathID(r.URL.Path, "/api/emails/", "/read")
	for i := range fb.Emails {
		if fb.Emails[i].ID == id {
			fb.Emails[i].IsRead = true
			writeJSON(w, http.StatusOK, map[string]string{"message": "Email marked as read"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Email not found")
}

func (fb *FakeBackend) processEmail(w http.ResponseWriter, r *http.Request) {
	if fb.FailProcess {
		writeError(w, http.StatusInternalServerError, "LLM unavailable")
		return
	}

	id := pathID(r.URL.Path, "/api/emails/", "/process")

	var req struct {
		Tasks []string `json:"tasks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	for i := range fb.Emails {
		if fb.Emails[i].ID != id {
			continue
		}
		email := &fb.Emails[i]
		for _, task := range req.Tasks {
			switch task {
			case gateway.TaskCategorize:
				email.Category = model.CategoryWork
				email.Priority = model.PriorityHigh
				email.Sentiment = "Neutral"
			case gateway.TaskExtractTasks:
				email.HasActionItems = true
				email.ActionItems = `[{"task":"Reply to sender","priority":"High"}]`
			case gateway.TaskGenerateDraft:
				fb.Drafts = append(fb.Drafts, model.Draft{
					ID:      fb.nextDraftID,
					EmailID: email.ID,
					Subject: "Re: " + email.Subject,
					Body:    "Thanks, will do.",
					Tone:    "professional",
				})
				fb.nextDraftID++
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"email": email})
		return
	}
	writeError(w, http.StatusNotFound, "Email not found")
}

func (fb *FakeBackend) listDrafts(w http.ResponseWriter, r *http.Request) {
	out := make([]model.Draft, 0, len(fb.Drafts))
	emailID := 0
	if raw := r.URL.Query().Get("email_id"); raw != "" {
		emailID, _ = strconv.Atoi(raw)
	}
	for _, d := range fb.Drafts {
		if emailID == 0 || d.EmailID == emailID {
			out = append(out, d)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (fb *FakeBackend) getDraft(w http.ResponseWriter, r *http.Request) {
	id := trailingID(r.URL.Path)
	for _, d := range fb.Drafts {
		if d.ID == id {
			writeJSON(w, http.StatusOK, d)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Draft not found")
}

func (fb *FakeBackend) createPrompt(w http.ResponseWriter, r *http.Request) {
	var fields gateway.PromptFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	for _, p := range fb.Prompts {
		if p.Name == fields.Name {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("prompt name %q already exists", fields.Name))
			return
		}
	}

	prompt := model.PromptTemplate{
		ID:         fb.nextPromptID,
		Name:       fields.Name,
		PromptType: fields.PromptType,
		Content:    fields.Content,
		IsActive:   fields.IsActive,
	}
	fb.nextPromptID++
	fb.Prompts = append(fb.Prompts, prompt)
	writeJSON(w, http.StatusOK, prompt)
}

func (fb *FakeBackend) updatePrompt(w http.ResponseWriter, r *http.Request) {
	id := trailingID(r.URL.Path)

	var fields gateway.PromptFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	for _, p := range fb.Prompts {
		if p.Name == fields.Name && p.ID != id {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("prompt name %q already exists", fields.Name))
			return
		}
	}

	for i := range fb.Prompts {
		if fb.Prompts[i].ID == id {
			fb.Prompts[i].PromptType = fields.PromptType
			fb.Prompts[i].Content = fields.Content
			fb.Prompts[i].IsActive = fields.IsActive
			writeJSON(w, http.StatusOK, fb.Prompts[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Prompt not found")
}

func (fb *FakeBackend) deletePrompt(w http.ResponseWriter, r *http.Request) {
	id := trailingID(r.URL.Path)
	for i := range fb.Prompts {
		if fb.Prompts[i].ID == id {
			fb.Prompts = append(fb.Prompts[:i], fb.Prompts[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": "Prompt deleted"})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Prompt not found")
}

func (fb *FakeBackend) chat(w http.ResponseWriter, r *http.Request) {
	if fb.FailChat {
		writeError(w, http.StatusInternalServerError, "LLM unavailable")
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		writeError(w, http.StatusBadRequest, "message required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"response": fb.ChatReply})
}

// stats recomputes the counter snapshot from current state, mirroring
// the real backend.
func (fb *FakeBackend) stats() model.Stats {
	stats := model.Stats{
		TotalEmails: len(fb.Emails),
		DraftsCount: len(fb.Drafts),
		Categories:  make(map[string]int),
		Priorities:  make(map[string]int),
	}
	for _, e := range fb.Emails {
		if !e.IsRead {
			stats.UnreadCount++
		}
		if e.HasActionItems {
			stats.ActionItemsCount++
		}
		stats.Categories[e.Category]++
		stats.Priorities[e.Priority]++
	}
	return stats
}

// pathID extracts the numeric ID between a prefix and suffix.
func pathID(path, prefix, suffix string) int {
	raw := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	id, _ := strconv.Atoi(raw)
	return id
}

// trailingID extracts the numeric ID from the last path segment.
func trailingID(path string) int {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	id, _ := strconv.Atoi(parts[len(parts)-1])
	return id
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
