package model

// Stats is the aggregate counter snapshot. Counts are always fetched
// from the server, never derived from the local email list; the two are
// refreshed together after any mutating action.
type Stats struct {
	TotalEmails      int            `json:"total_emails"`
	UnreadCount      int            `json:"unread_count"`
	ActionItemsCount int            `json:"action_items_count"`
	DraftsCount      int            `json:"drafts_count"`
	Categories       map[string]int `json:"categories"`
	Priorities       map[string]int `json:"priorities"`
}
