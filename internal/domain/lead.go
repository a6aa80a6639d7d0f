package domain

import "time"

// LeadSubmission is the record written for a contact form submission. It is never read back.
type LeadSubmission struct {
	Name        string
	Email       string
	Phone       string
	Subject     string
	Message     string
	SubmittedAt time.Time
	PageURL     string
}

// Payload is the field map sent to the content store.
func (l LeadSubmission) Payload() map[string]any {
	return map[string]any{
		"name":        l.Name,
		"email":       l.Email,
		"phone":       l.Phone,
		"subject":     l.Subject,
		"message":     l.Message,
		"submittedAt": l.SubmittedAt.UTC().Format(time.RFC3339Nano),
		"pageUrl":     l.PageURL,
	}
}
