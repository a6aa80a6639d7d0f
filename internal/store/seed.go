package store

import (
	"context"
	"fmt"

	"valetsite/internal/content"
)

// SeedSet is the starter content written by `site seed`.
type SeedSet struct {
	Services []map[string]any
	Careers  []map[string]any
}

func DefaultSeed() SeedSet {
	return SeedSet{
		Services: []map[string]any{
			{
				"serviceName":         "Doorstep Valet Trash",
				"shortDescription":    "Nightly pickup of bagged trash left outside each unit door.",
				"detailedDescription": "Residents set bags out between 6 and 8 PM, Sunday through Thursday. Our porters carry everything to the compactor so hallways and breezeways stay clean.",
				"serviceCategory":     "Trash",
			},
			{
				"serviceName":         "Doorstep Recycling",
				"shortDescription":    "Recycling collected from the door on a weekly route.",
				"detailedDescription": "Flattened cardboard and sorted recyclables are picked up once a week and hauled to the community's recycling containers.",
				"serviceCategory":     "Recycling",
			},
			{
				"serviceName":      "Bulk Item Removal",
				"shortDescription": "Scheduled removal of furniture and move-out debris.",
				"serviceCategory":  "Bulk",
			},
			{
				"serviceName":      "Pet Station Service",
				"shortDescription": "Bag restocking and waste removal for community pet stations.",
				"serviceCategory":  "Amenities",
			},
		},
		Careers: []map[string]any{
			{
				"jobTitle":       "Valet Porter",
				"department":     "Operations",
				"employmentType": "Part-time",
				"location":       "Myrtle Beach, SC",
				"jobDescription": "Evening route work collecting doorstep trash and recycling. Must be able to lift 40 lbs and walk several miles per shift.",
				"datePosted":     "2025-01-06",
			},
			{
				"jobTitle":       "Route Supervisor",
				"department":     "Operations",
				"employmentType": "Full-time",
				"location":       "Horry County, SC",
				"jobDescription": "Lead a team of porters across several communities and own service quality for your routes.",
				"datePosted":     "2025-01-13",
			},
		},
	}
}

// Seed writes set into st. Collections that already hold records are left alone.
func Seed(ctx context.Context, st content.Store, servicesCollection, careersCollection string, set SeedSet) (added int, err error) {
	batches := []struct {
		collection string
		items      []map[string]any
	}{
		{servicesCollection, set.Services},
		{careersCollection, set.Careers},
	}

	for _, b := range batches {
		cur, err := st.FetchAll(ctx, b.collection)
		if err != nil {
			return added, fmt.Errorf("seed %s: %w", b.collection, err)
		}
		if len(cur.Items) > 0 {
			continue
		}
		for _, it := range b.items {
			if _, err := st.Create(ctx, b.collection, it); err != nil {
				return added, fmt.Errorf("seed %s: %w", b.collection, err)
			}
			added++
		}
	}
	return added, nil
}
