package ident

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is an opaque, globally-unique handle for a registrable component.
// Equality is pointer identity; the embedded token and description exist
// purely for diagnostics. IDs are safe to use as map keys.
type ID struct {
	token uuid.UUID
	desc  string
}

// New mints a fresh identifier carrying a human-readable description.
func New(desc string) *ID {
	return &ID{token: uuid.New(), desc: desc}
}

// Description returns the human-readable description the ID was minted with.
func (id *ID) Description() string { return id.desc }

// String renders the ID for logs and error messages.
func (id *ID) String() string {
	if id == nil {
		return "<nil id>"
	}
	return fmt.Sprintf("%s(%s)", id.desc, id.token.String()[:8])
}
