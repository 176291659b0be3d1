package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/waypoint-agents/server/internal/core/error"
)

func validRequest() TripRequest {
	return TripRequest{
		StartLocation:      "Kolkata",
		TouristDestination: "Sikkim",
		EndLocation:        "Kolkata",
		Budget:             Budget{Amount: 1000, Currency: "USD"},
		TotalDays:          2,
		NumberOfPeople:     2,
	}
}

func TestValidate_AcceptsValidRequest(t *testing.T) {
	assert.NoError(t, validRequest().Validate())
}

func TestValidate_RejectsPreconditions(t *testing.T) {
	cases := map[string]func(r *TripRequest){
		"zero days":           func(r *TripRequest) { r.TotalDays = 0 },
		"zero budget":         func(r *TripRequest) { r.Budget.Amount = 0 },
		"negative budget":     func(r *TripRequest) { r.Budget.Amount = -5 },
		"NaN budget":          func(r *TripRequest) { r.Budget.Amount = math.NaN() },
		"infinite budget":     func(r *TripRequest) { r.Budget.Amount = math.Inf(1) },
		"zero people":         func(r *TripRequest) { r.NumberOfPeople = 0 },
		"same start and hint": func(r *TripRequest) { r.TouristDestination = "kolkata " },
		"missing end":         func(r *TripRequest) { r.EndLocation = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := validRequest()
			mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errx.IsInvalid(err))
		})
	}
}

func TestParseBudget(t *testing.T) {
	cases := []struct {
		in   string
		want Budget
	}{
		{"1000", Budget{Amount: 1000, Currency: "USD"}},
		{"1000 INR", Budget{Amount: 1000, Currency: "INR"}},
		{"usd 250.5", Budget{Amount: 250.5, Currency: "USD"}},
		{"$1,200", Budget{Amount: 1200, Currency: "USD"}},
		{"₹ 5000", Budget{Amount: 5000, Currency: "INR"}},
	}
	for _, c := range cases {
		got, err := ParseBudget(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := ParseBudget("")
	assert.Error(t, err)
	_, err = ParseBudget("EUR")
	assert.Error(t, err)
	_, err = ParseBudget("$ 10 EUR")
	assert.Error(t, err)

	for _, in := range []string{"NaN", "Inf USD", "+Inf", "-inf"} {
		_, err = ParseBudget(in)
		assert.Error(t, err, in)
	}
}

func TestBudgetString(t *testing.T) {
	assert.Equal(t, "1000.00 USD", Budget{Amount: 1000}.String())
	assert.Equal(t, "20.50 INR", Budget{Amount: 20.5, Currency: "INR"}.String())
}

func TestNewTripStateAndVisited(t *testing.T) {
	s := NewTripState(validRequest())

	assert.Equal(t, "Kolkata", s.CurrentLocation)
	assert.Equal(t, "Sikkim", s.NextLocation)
	assert.Equal(t, []string{"Kolkata"}, s.Visited)
	assert.Equal(t, 2, s.DaysRemaining)
	assert.True(t, s.HasVisited(" kolkata"))
	assert.False(t, s.HasVisited("Gangtok"))
}

func TestResolvePricingAndCost(t *testing.T) {
	p := ResolvePricing("openai/gpt-4o-mini")
	assert.Equal(t, 0.15, p.InputPerM)
	assert.Equal(t, Pricing{}, ResolvePricing("unknown-model"))

	in, out, total := ComputeCost(nil, p)
	assert.Zero(t, in+out+total)
}
