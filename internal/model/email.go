package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Email categories assigned by the backend categorizer.
const (
	CategoryWork        = "Work"
	CategoryImportant   = "Important"
	CategoryPersonal    = "Personal"
	CategoryPromotional = "Promotional"
)

// Categories lists the filterable categories in sidebar order.
var Categories = []string{
	CategoryWork,
	CategoryImportant,
	CategoryPersonal,
	CategoryPromotional,
}

// Email priorities assigned by the backend categorizer.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Email is a server-owned email snapshot. The client never patches an
// Email locally; mutations go through the gateway and the returned
// snapshot replaces the held one wholesale.
type Email struct {
	ID             int       `json:"id"`
	Sender         string    `json:"sender"`
	SenderName     string    `json:"sender_name"`
	Recipient      string    `json:"recipient"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Category       string    `json:"category"`
	Priority       string    `json:"priority"`
	Sentiment      string    `json:"sentiment,omitempty"`
	ReceivedAt     time.Time `json:"received_at"`
	IsRead         bool      `json:"is_read"`
	HasActionItems bool      `json:"has_action_items"`

	// ActionItems is the raw JSON list as stored server-side.
	// Parsed lazily via ParseActionItems.
	ActionItems string `json:"action_items,omitempty"`
}

// ActionItem is a single task extracted from an email body.
type ActionItem struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// ParseActionItems decodes the serialized action item list. A missing
// or malformed payload yields an empty slice, never an error; the
// extractor's output is advisory and must not break rendering.
func (e Email) ParseActionItems() []ActionItem {
	raw := strings.TrimSpace(e.ActionItems)
	if raw == "" {
		return nil
	}

	var items []ActionItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		// The extractor sometimes emits bare strings instead of objects.
		// The failed decode may have left partial entries behind.
		items = nil
		var plain []string
		if err := json.Unmarshal([]byte(raw), &plain); err != nil {
			return nil
		}
		for _, task := range plain {
			items = append(items, ActionItem{Task: task})
		}
	}

	return items
}
