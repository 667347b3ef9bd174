package types

import (
	"time"

	"github.com/google/uuid"
)

// ItinerarySource tags where an itinerary body came from.
type ItinerarySource string

const (
	ItinerarySourceTemplate ItinerarySource = "template"
	ItinerarySourceAI       ItinerarySource = "ai"
)

type Vehicle struct {
	Type  string `json:"type"`
	Model string `json:"model"`
}

type Hotel struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// DayPlan is one day of an itinerary. DayNumber is 1-based and matches the
// position of the day inside its ItineraryBody.
type DayPlan struct {
	ID             uuid.UUID `json:"id"`
	DayNumber      int       `json:"dayNumber"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	VisitingPlaces []string  `json:"visitingPlaces"`
	Vehicle        *Vehicle  `json:"vehicle,omitempty"`
	Hotel          *Hotel    `json:"hotel,omitempty"`
	Images         []string  `json:"images"`
}

type ItineraryBody struct {
	Days []DayPlan `json:"days"`
}

// EmptyItinerary returns a body whose days encode as [] rather than null.
func EmptyItinerary() ItineraryBody {
	return ItineraryBody{Days: []DayPlan{}}
}

// Clone returns a deep copy so callers may not mutate a shared body.
func (b ItineraryBody) Clone() ItineraryBody {
	out := ItineraryBody{Days: make([]DayPlan, len(b.Days))}
	for i, d := range b.Days {
		c := d
		c.VisitingPlaces = append([]string(nil), d.VisitingPlaces...)
		c.Images = append([]string(nil), d.Images...)
		if d.VisitingPlaces != nil && c.VisitingPlaces == nil {
			c.VisitingPlaces = []string{}
		}
		if d.Images != nil && c.Images == nil {
			c.Images = []string{}
		}
		if d.Vehicle != nil {
			v := *d.Vehicle
			c.Vehicle = &v
		}
		if d.Hotel != nil {
			h := *d.Hotel
			c.Hotel = &h
		}
		out.Days[i] = c
	}
	return out
}

// GeneratedDay is the partial day shape returned by a generator. Every field
// may be missing; the itinerary service fills the gaps.
type GeneratedDay struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	VisitingPlaces []string `json:"visitingPlaces"`
	Hotel          *Hotel   `json:"hotel,omitempty"`
	Vehicle        *Vehicle `json:"vehicle,omitempty"`
}

// GenerateItineraryRequest is the body accepted by POST /itinerary/generate.
// Days is a pointer so a missing value can be told apart from zero.
type GenerateItineraryRequest struct {
	LeadID      string `json:"leadId"`
	Destination string `json:"destination"`
	Days        *int   `json:"days"`
	Travellers  int    `json:"travellers,omitempty"`
	Source      string `json:"source,omitempty"`
}

type GenerateItineraryResponse struct {
	Itinerary ItineraryBody   `json:"itinerary"`
	Source    ItinerarySource `json:"source"`
}

// DegradedItineraryResponse is written with a 500 when generation failed
// unexpectedly. The client still receives a well-formed, empty itinerary.
type DegradedItineraryResponse struct {
	Error     bool          `json:"error"`
	Itinerary ItineraryBody `json:"itinerary"`
}

// GenerationRecord is the audit entry written for every AI generation.
type GenerationRecord struct {
	ID          uuid.UUID     `json:"id"`
	LeadID      string        `json:"lead_id"`
	Destination string        `json:"destination"`
	Source      string        `json:"source"`
	Days        int           `json:"days"`
	Travellers  int           `json:"travellers"`
	Itinerary   ItineraryBody `json:"itinerary"`
	CreatedAt   time.Time     `json:"created_at"`
}
