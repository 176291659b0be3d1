package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	errx "github.com/waypoint-agents/server/internal/core/error"
)

const DefaultCurrency = "USD"

// RoleKind names one of the four per-day role agents.
type RoleKind string

const (
	RoleTransport       RoleKind = "transport"
	RoleSightseeing     RoleKind = "sightseeing"
	RoleHotel           RoleKind = "hotel"
	RoleNextDestination RoleKind = "next_destination"
)

// Budget is a currency-tagged amount.
type Budget struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func (b Budget) String() string {
	cur := b.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return strconv.FormatFloat(b.Amount, 'f', 2, 64) + " " + cur
}

var currencySymbols = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"₹": "INR",
	"¥": "JPY",
}

// ParseBudget accepts "1000", "1000 INR", "USD 1000", "$1,000.50".
func ParseBudget(s string) (Budget, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Budget{}, fmt.Errorf("budget is empty")
	}

	currency := ""
	for sym, code := range currencySymbols {
		if strings.HasPrefix(s, sym) {
			currency = code
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
			break
		}
	}

	var amount string
	for _, f := range strings.Fields(s) {
		if _, err := strconv.ParseFloat(strings.ReplaceAll(f, ",", ""), 64); err == nil && amount == "" {
			amount = strings.ReplaceAll(f, ",", "")
			continue
		}
		if currency != "" {
			return Budget{}, fmt.Errorf("unexpected token %q in budget", f)
		}
		currency = strings.ToUpper(f)
	}
	if amount == "" {
		return Budget{}, fmt.Errorf("budget %q has no amount", s)
	}

	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return Budget{}, fmt.Errorf("budget amount: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Budget{}, fmt.Errorf("budget amount %q is not a finite number", amount)
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Budget{Amount: v, Currency: currency}, nil
}

// TripRequest holds the entry parameters of one itinerary generation.
type TripRequest struct {
	StartLocation      string `json:"start_location"`
	TouristDestination string `json:"tourist_destination"`
	EndLocation        string `json:"end_location"`
	Budget             Budget `json:"budget"`
	TotalDays          int    `json:"total_days"`
	NumberOfPeople     int    `json:"number_of_people"`
}

// Validate checks the preconditions of a trip. It runs before any agent call and
// the returned message is meant to be shown to the caller as is.
func (r TripRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.StartLocation) == "":
		return errx.Invalid("start location is required")
	case strings.TrimSpace(r.TouristDestination) == "":
		return errx.Invalid("tourist destination is required")
	case strings.TrimSpace(r.EndLocation) == "":
		return errx.Invalid("end location is required")
	case r.TotalDays <= 0:
		return errx.Invalid("total days must be greater than 0")
	case !(r.Budget.Amount > 0) || math.IsInf(r.Budget.Amount, 0):
		return errx.Invalid("budget must be greater than 0")
	case r.NumberOfPeople <= 0:
		return errx.Invalid("number of people must be greater than 0")
	case strings.EqualFold(strings.TrimSpace(r.StartLocation), strings.TrimSpace(r.TouristDestination)):
		return errx.Invalid("start location and tourist destination must be different")
	}
	return nil
}

// TripState is the mutable loop state owned by the day orchestrator.
type TripState struct {
	CurrentLocation     string   `json:"current_location"`
	NextLocation        string   `json:"next_location"`
	Visited             []string `json:"visited"`
	DaysRemaining       int      `json:"days_remaining"`
	ConsecutiveFailures int      `json:"consecutive_failures"`
}

// NewTripState seeds the loop state from a validated request.
func NewTripState(req TripRequest) TripState {
	return TripState{
		CurrentLocation: req.StartLocation,
		NextLocation:    req.TouristDestination,
		Visited:         []string{req.StartLocation},
		DaysRemaining:   req.TotalDays,
	}
}

// HasVisited reports whether place was already recorded, ignoring case.
func (s TripState) HasVisited(place string) bool {
	place = strings.TrimSpace(place)
	for _, v := range s.Visited {
		if strings.EqualFold(v, place) {
			return true
		}
	}
	return false
}

// DayResult is the outcome of one loop iteration. It is never mutated after
// the iteration that produced it completes.
type DayResult struct {
	Day             int        `json:"day"`
	From            string     `json:"from"`
	Place           string     `json:"place"`
	Transport       string     `json:"transport"`
	Hotel           string     `json:"hotel"`
	Sightseeing     string     `json:"sightseeing"`
	NextDestination string     `json:"next_destination"`
	Success         bool       `json:"success"`
	FailedSteps     []RoleKind `json:"failed_steps,omitempty"`
}

// Itinerary is the persisted result of one generation.
type Itinerary struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Request   TripRequest `json:"request"`
	Days      []DayResult `json:"days"`
	Narrative string      `json:"narrative"`
	Summary   string      `json:"summary"`
	Aborted   bool        `json:"aborted"`
	Notice    string      `json:"notice,omitempty"`
	CostUSD   float64     `json:"cost_usd"`
}

// Text is the itinerary as shown to the traveller. An early stop notice, when
// present, always leads so it never depends on the summary repeating it.
func (it *Itinerary) Text() string {
	if it.Notice == "" {
		return it.Summary
	}
	return it.Notice + "\n\n" + it.Summary
}
