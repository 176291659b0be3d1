package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/waypoint-agents/server/internal/agent/model"
)

// CreateItineraryRequest is the POST body. Budget may be a number (USD), a
// string such as "1000 INR" or an object {"amount":1000,"currency":"INR"}.
type CreateItineraryRequest struct {
	StartLocation      string          `json:"start_location"`
	TouristDestination string          `json:"tourist_destination"`
	EndLocation        string          `json:"end_location"`
	Budget             json.RawMessage `json:"budget"`
	TotalDays          int             `json:"total_days"`
	NumberOfPeople     int             `json:"number_of_people"`
}

func (c CreateItineraryRequest) TripRequest() (model.TripRequest, error) {
	budget, err := decodeBudget(c.Budget)
	if err != nil {
		return model.TripRequest{}, err
	}
	return model.TripRequest{
		StartLocation:      c.StartLocation,
		TouristDestination: c.TouristDestination,
		EndLocation:        c.EndLocation,
		Budget:             budget,
		TotalDays:          c.TotalDays,
		NumberOfPeople:     c.NumberOfPeople,
	}, nil
}

func decodeBudget(raw json.RawMessage) (model.Budget, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return model.Budget{}, nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.Budget{}, fmt.Errorf("budget: %w", err)
		}
		return model.ParseBudget(s)
	case '{':
		var b model.Budget
		if err := json.Unmarshal(raw, &b); err != nil {
			return model.Budget{}, fmt.Errorf("budget: %w", err)
		}
		if b.Currency == "" {
			b.Currency = model.DefaultCurrency
		}
		return b, nil
	default:
		var amount float64
		if err := json.Unmarshal(raw, &amount); err != nil {
			return model.Budget{}, fmt.Errorf("budget must be a number, a string or an object")
		}
		return model.Budget{Amount: amount, Currency: model.DefaultCurrency}, nil
	}
}
