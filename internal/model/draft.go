package model

import "time"

// Draft is a generated reply for an email. Drafts are immutable once
// created; "latest" is the last element of the server-ordered list.
type Draft struct {
	ID        int       `json:"id"`
	EmailID   int       `json:"email_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Tone      string    `json:"tone"`
	IsSent    bool      `json:"is_sent"`
	CreatedAt time.Time `json:"created_at"`
}
