package domain

import "valetsite/internal/content"

type ServiceListing struct {
	ID                  string
	Name                string
	ShortDescription    string
	DetailedDescription string
	ImageURL            string
	Category            string
}

func ServiceFromRecord(r content.Record) ServiceListing {
	return ServiceListing{
		ID:                  r.ID,
		Name:                r.String("serviceName"),
		ShortDescription:    r.String("shortDescription"),
		DetailedDescription: r.String("detailedDescription"),
		ImageURL:            r.String("serviceImage"),
		Category:            r.String("serviceCategory"),
	}
}
