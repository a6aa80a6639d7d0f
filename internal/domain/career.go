package domain

import (
	"time"

	"valetsite/internal/content"
)

type CareerOpportunity struct {
	ID             string
	JobTitle       string
	Department     string
	EmploymentType string
	Location       string
	Description    string
	DatePosted     *time.Time
	ApplicationURL string
}

func CareerFromRecord(r content.Record) CareerOpportunity {
	c := CareerOpportunity{
		ID:             r.ID,
		JobTitle:       r.String("jobTitle"),
		Department:     r.String("department"),
		EmploymentType: r.String("employmentType"),
		Location:       r.String("location"),
		Description:    r.String("jobDescription"),
		ApplicationURL: r.String("applicationUrl"),
	}
	if t := r.Time("datePosted"); !t.IsZero() {
		c.DatePosted = &t
	}
	return c
}

// ApplyHref is where the "Apply Now" button goes: the posting's own url, else the contact page.
func (c CareerOpportunity) ApplyHref() string {
	if c.ApplicationURL != "" {
		return c.ApplicationURL
	}
	return "/contact"
}

func (c CareerOpportunity) PostedLabel() string {
	if c.DatePosted == nil {
		return ""
	}
	return c.DatePosted.Format("Jan 2, 2006")
}
