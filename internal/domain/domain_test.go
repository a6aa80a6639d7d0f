package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"valetsite/internal/content"
)

func TestCareerFromRecord(t *testing.T) {
	r := content.Record{
		ID: "c1",
		Fields: map[string]any{
			"jobTitle":       "  Valet Porter ",
			"department":     "Operations",
			"employmentType": "Part-time",
			"jobDescription": "Evening routes.",
			"datePosted":     "2025-01-06",
		},
	}

	c := CareerFromRecord(r)
	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, "Valet Porter", c.JobTitle)
	assert.Equal(t, "Evening routes.", c.Description)
	assert.Equal(t, "Jan 6, 2025", c.PostedLabel())
	assert.Equal(t, "/contact", c.ApplyHref())

	c.ApplicationURL = "https://jobs.example.com/porter"
	assert.Equal(t, "https://jobs.example.com/porter", c.ApplyHref())
}

func TestCareerWithoutDate(t *testing.T) {
	c := CareerFromRecord(content.Record{ID: "c2", Fields: map[string]any{"jobTitle": "Dispatcher"}})
	assert.Nil(t, c.DatePosted)
	assert.Empty(t, c.PostedLabel())
}

func TestServiceFromRecord(t *testing.T) {
	s := ServiceFromRecord(content.Record{ID: "s1", Fields: map[string]any{
		"serviceName":      "Doorstep Valet Trash",
		"shortDescription": "Nightly pickup.",
		"serviceImage":     "https://static.wixstatic.com/media/trash.jpg",
		"serviceCategory":  "Trash",
		"unrelated":        42,
	}})
	assert.Equal(t, ServiceListing{
		ID:               "s1",
		Name:             "Doorstep Valet Trash",
		ShortDescription: "Nightly pickup.",
		ImageURL:         "https://static.wixstatic.com/media/trash.jpg",
		Category:         "Trash",
	}, s)
}

func TestLeadPayload(t *testing.T) {
	at := time.Date(2025, 2, 3, 4, 5, 6, 0, time.FixedZone("EST", -5*3600))
	p := LeadSubmission{Name: "Jane Doe", Message: "Need pricing", SubmittedAt: at, PageURL: "https://neighborhoodvalet.com/contact"}.Payload()

	assert.Equal(t, "Jane Doe", p["name"])
	assert.Equal(t, "2025-02-03T09:05:06Z", p["submittedAt"])
	assert.Equal(t, "https://neighborhoodvalet.com/contact", p["pageUrl"])
	assert.Contains(t, p, "email")
	assert.NotContains(t, p, "company")
}
