package summary

import (
	"encoding/json"
	"fmt"
)

// StatusCompleted is the status value that marks a finished intent.
const StatusCompleted = "COMPLETED"

// Target identifies the observed object. Name and RSO.CatalogID form the group key.
type Target struct {
	Name string `json:"name"`
	RSO  RSO    `json:"rso"`
}

// RSO carries the resident space object catalog identity.
type RSO struct {
	CatalogID string `json:"catalogId"`
}

// Update is one status-changing entry in an intent's update list.
type Update struct {
	UpdateType   string `json:"updateType"`
	UpdateReason string `json:"updateReason"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
}

// ObservationParameters describes how an observation should be taken.
// Numeric fields stay json.Number; tallies key them by value.
type ObservationParameters struct {
	FrameType        string      `json:"frameType,omitempty"`
	NumFrames        json.Number `json:"numFrames"`
	IntegrationTimeS json.Number `json:"integrationTimeS"`
	TrackType        string      `json:"trackType"`
}

// Intent is a scheduling record describing a requested observation.
type Intent struct {
	Target                      Target                `json:"target"`
	CurrentStatus               string                `json:"currentStatus"`
	UpdateList                  []Update              `json:"updateList"`
	Priority                    json.Number           `json:"priority"`
	IntentObservationParameters ObservationParameters `json:"intentObservationParameters"`
	CreatedAt                   string                `json:"createdAt"`
}

// IntentRef is the subset of the parent intent embedded in a collect request.
type IntentRef struct {
	CurrentStatus               string                `json:"currentStatus"`
	IntentObservationParameters ObservationParameters `json:"intentObservationParameters"`
}

// Sensor is the instrument location that serviced a collect request.
type Sensor struct {
	Name         string      `json:"name"`
	LatitudeDeg  json.Number `json:"latitudeDeg"`
	LongitudeDeg json.Number `json:"longitudeDeg"`
	AltitudeKm   json.Number `json:"altitudeKm"`
}

// Instrument wraps the sensor of a collect request.
type Instrument struct {
	Sensor Sensor `json:"sensor"`
}

// CollectRequest is a scheduled observation derived from an intent.
type CollectRequest struct {
	Target        Target      `json:"target"`
	Intent        IntentRef   `json:"intent"`
	StartDateTime string      `json:"startDateTime"`
	EndDateTime   string      `json:"endDateTime"`
	DurationS     json.Number `json:"durationS"`
	Priority      json.Number `json:"priority"`
	FrameType     string      `json:"frameType"`
	Instrument    Instrument  `json:"instrument"`
}

// GroupKey returns the display key shared by every record of one target.
// Names or catalog ids containing " (Catalog ID: " can produce ambiguous keys.
func GroupKey(name, catalogID string) string {
	return fmt.Sprintf("%s (Catalog ID: %s)", name, catalogID)
}

// Key returns the group key of the intent.
func (i Intent) Key() string { return GroupKey(i.Target.Name, i.Target.RSO.CatalogID) }

// Key returns the group key of the collect request.
func (c CollectRequest) Key() string { return GroupKey(c.Target.Name, c.Target.RSO.CatalogID) }

// location renders the sensor position used for the sensor_locations set.
func (s Sensor) location() string {
	return fmt.Sprintf("Lat: %s, Lon: %s, Alt: %s km", s.LatitudeDeg, s.LongitudeDeg, s.AltitudeKm)
}
