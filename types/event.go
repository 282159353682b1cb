package types

import "time"

// InstitutionEventType names a change applied to an institution record.
type InstitutionEventType string

// Supported event types.
const (
	InstitutionCreated InstitutionEventType = "created"
	InstitutionUpdated InstitutionEventType = "updated"
	InstitutionDeleted InstitutionEventType = "deleted"
)

// InstitutionEvent is the payload published on the events channel after
// a successful write.
type InstitutionEvent struct {
	Type          InstitutionEventType `json:"type"`
	InstitutionID int                  `json:"institution_id"`
	NationalID    string               `json:"national_id,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}
