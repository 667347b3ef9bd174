package types

import (
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadStatusPending LeadStatus = "pending"
	LeadStatusShared  LeadStatus = "shared"
)

func (s LeadStatus) Valid() bool {
	return s == LeadStatusPending || s == LeadStatusShared
}

type ShareChannel string

const (
	ShareChannelWhatsApp ShareChannel = "whatsapp"
	ShareChannelEmail    ShareChannel = "email"
	ShareChannelLink     ShareChannel = "link"
)

func (c ShareChannel) Valid() bool {
	switch c {
	case ShareChannelWhatsApp, ShareChannelEmail, ShareChannelLink:
		return true
	}
	return false
}

// Lead is a traveller enquiry captured by an agent.
type Lead struct {
	ID            uuid.UUID  `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	CreatedBy     *string    `json:"created_by,omitempty"`
	TravellerName string     `json:"traveller_name"`
	Phone         string     `json:"phone"`
	FromLocation  string     `json:"from_location"`
	Destination   string     `json:"destination"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	Travellers    int        `json:"travellers"`
	Status        LeadStatus `json:"status"`
}

type CreateLeadRequest struct {
	TravellerName string     `json:"traveller_name"`
	Phone         string     `json:"phone,omitempty"`
	FromLocation  string     `json:"from_location,omitempty"`
	Destination   string     `json:"destination,omitempty"`
	StartDate     *time.Time `json:"startDate,omitempty"`
	EndDate       *time.Time `json:"endDate,omitempty"`
	PaxCount      int        `json:"paxCount,omitempty"`
	CreatedBy     *string    `json:"created_by,omitempty"`
}

type UpdateLeadStatusRequest struct {
	Status LeadStatus `json:"status"`
}

type ShareLeadRequest struct {
	SharedVia ShareChannel `json:"sharedVia"`
}

type ActivityStats struct {
	LeadsGenerated    int `json:"leadsGenerated"`
	ItinerariesShared int `json:"itinerariesShared"`
}
