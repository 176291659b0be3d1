package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waypoint-agents/server/internal/agent/model"
)

func TestRenderRole_Transport(t *testing.T) {
	r, err := RenderRole(context.Background(), model.RoleTransport, RoleVars{From: "Kolkata", To: "Sikkim", People: 2})
	require.NoError(t, err)

	assert.Contains(t, r.System, "for 2 people")
	assert.Contains(t, r.System, "Flight")
	assert.Equal(t, "Find me the price of traveling from Kolkata to Sikkim using car, train, flight. Please return in json format, no unnecessary text to be returned.", r.User)
}

func TestRenderRole_PlaceTemplates(t *testing.T) {
	vars := RoleVars{Place: "Gangtok", People: 3, DaysLeft: 4}

	hotel, err := RenderRole(context.Background(), model.RoleHotel, vars)
	require.NoError(t, err)
	assert.Equal(t, "Show me the 2 cheapest hotels for the location Gangtok.", hotel.User)

	sight, err := RenderRole(context.Background(), model.RoleSightseeing, vars)
	require.NoError(t, err)
	assert.Equal(t, "Find me the 4 best sightseeing options for the location Gangtok.", sight.User)
	assert.Contains(t, sight.System, "There are 3 people.")
}

func TestRenderRole_NextDestinationVisited(t *testing.T) {
	without, err := RenderRole(context.Background(), model.RoleNextDestination, RoleVars{Place: "Sikkim", DaysLeft: 1})
	require.NoError(t, err)
	assert.Contains(t, without.System, "1 days left")
	assert.NotContains(t, without.System, "already visited")

	with, err := RenderRole(context.Background(), model.RoleNextDestination, RoleVars{
		Place:    "Sikkim",
		DaysLeft: 2,
		Visited:  []string{"Kolkata", "Sikkim"},
	})
	require.NoError(t, err)
	assert.Contains(t, with.System, "They have already visited: Kolkata, Sikkim.")
	assert.Equal(t, "Find me the next best tourist destination closest from Sikkim.", with.User)
}

func TestRenderRole_UnknownKind(t *testing.T) {
	_, err := RenderRole(context.Background(), model.RoleKind("weather"), RoleVars{})
	assert.Error(t, err)
}

func TestRenderSummary(t *testing.T) {
	req := model.TripRequest{
		StartLocation:      "Kolkata",
		TouristDestination: "Sikkim",
		EndLocation:        "Kolkata",
		Budget:             model.Budget{Amount: 1000, Currency: "USD"},
		TotalDays:          2,
		NumberOfPeople:     2,
	}

	r, err := RenderSummary(context.Background(), req, "Day: 1\nTransport: $50 by car\n")
	require.NoError(t, err)

	assert.Contains(t, r.System, "Total budget: 1000.00 USD")
	assert.Contains(t, r.System, "Total days: 2")
	assert.Contains(t, r.System, "day-wise")
	assert.Contains(t, r.User, "Transport: $50 by car")
}
