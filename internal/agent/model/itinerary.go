package model

import "context"

type ItineraryRepository interface {
	// Save stores a finished itinerary and records it as most recent.
	Save(ctx context.Context, it *Itinerary) error

	// Get loads one itinerary by id.
	Get(ctx context.Context, id string) (*Itinerary, error)

	// ListRecent returns up to limit itineraries, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Itinerary, error)
}
