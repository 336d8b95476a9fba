package models

import (
	"fmt"
	"strings"
)

// EmptyParticipantPrefix is the ID prefix of synthetic bye slots.
const EmptyParticipantPrefix = "empty-"

// Participant - участник турнира. IsEmpty помечает синтетический "пустой" слот (bye).
type Participant struct {
	ID        string  `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Rating    float64 `json:"rating"`
	IsEmpty   bool    `json:"isEmpty,omitempty"`
}

// NewEmptyParticipant builds the n-th bye slot used to pad the field.
func NewEmptyParticipant(n int) Participant {
	return Participant{
		ID:        fmt.Sprintf("%s%d", EmptyParticipantPrefix, n),
		FirstName: "Empty",
		LastName:  "Slot",
		IsEmpty:   true,
	}
}

func (p Participant) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.ID
	}
	return name
}
