package itinerary

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-travel-agent-crm/internal/types"
)

const (
	DefaultRealDayCap = 3
	DefaultMaxDays    = 60
	DefaultTravellers = 2
	DefaultSource     = "Web"

	defaultVehicleType = "Sedan"
)

// buildItinerary returns exactly days entries. The first len(generated) days are
// taken from the generator, with gaps filled; the rest are generic.
func buildItinerary(destination string, days int, generated []types.GeneratedDay) types.ItineraryBody {
	body := types.ItineraryBody{Days: make([]types.DayPlan, 0, days)}
	for i := 0; i < days; i++ {
		if i < len(generated) {
			body.Days = append(body.Days, realDay(i+1, destination, generated[i]))
			continue
		}
		body.Days = append(body.Days, genericDay(i+1, destination))
	}
	return body
}

func realDay(n int, destination string, g types.GeneratedDay) types.DayPlan {
	day := types.DayPlan{
		ID:          uuid.New(),
		DayNumber:   n,
		Title:       strings.TrimSpace(g.Title),
		Description: strings.TrimSpace(g.Description),
		Images:      []string{},
	}
	if day.Title == "" {
		day.Title = fmt.Sprintf("Day %d in %s", n, destination)
	}
	if day.Description == "" {
		day.Description = fmt.Sprintf("Exploring %s.", destination)
	}

	for _, p := range g.VisitingPlaces {
		if p = strings.TrimSpace(p); p != "" {
			day.VisitingPlaces = append(day.VisitingPlaces, p)
		}
	}
	if len(day.VisitingPlaces) == 0 {
		day.VisitingPlaces = []string{"Popular Spot 1", "Popular Spot 2"}
	}

	vehicle := types.Vehicle{Type: defaultVehicleType}
	if g.Vehicle != nil {
		if t := strings.TrimSpace(g.Vehicle.Type); t != "" {
			vehicle.Type = t
		}
		vehicle.Model = strings.TrimSpace(g.Vehicle.Model)
	}
	day.Vehicle = &vehicle

	if g.Hotel != nil && (strings.TrimSpace(g.Hotel.Name) != "" || strings.TrimSpace(g.Hotel.Category) != "") {
		day.Hotel = &types.Hotel{Name: g.Hotel.Name, Category: g.Hotel.Category}
	} else {
		day.Hotel = &types.Hotel{Name: "Sample Hotel", Category: "4 Star"}
	}
	return day
}

func genericDay(n int, destination string) types.DayPlan {
	return types.DayPlan{
		ID:             uuid.New(),
		DayNumber:      n,
		Title:          fmt.Sprintf("Day %d in %s", n, destination),
		Description:    fmt.Sprintf("Exploring more hidden gems and local culture in %s.", destination),
		VisitingPlaces: []string{fmt.Sprintf("Spot A in %s", destination), fmt.Sprintf("Spot B in %s", destination)},
		Vehicle:        &types.Vehicle{Type: defaultVehicleType},
		Hotel:          &types.Hotel{Name: "Standard Hotel", Category: "3 Star"},
		Images:         []string{},
	}
}
