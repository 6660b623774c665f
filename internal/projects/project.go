package projects

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// LabelNow is the lastEdited label written on every create and save.
const LabelNow = "Agora"

// ID identifies a project across every owner. Older collections stored
// numeric ids, so both JSON numbers and strings decode into an ID and always
// compare as strings.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("project id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Project is a user's saved image-editing unit of work.
type Project struct {
	ID         ID      `json:"id"`
	Name       string  `json:"name"`
	ImageData  string  `json:"imageData,omitempty"`
	ImageURL   string  `json:"imageUrl,omitempty"`
	LastEdited string  `json:"lastEdited"`
	Owner      *string `json:"owner"`
}

// DisplaySource returns the image the project shows: freshly edited data
// always takes precedence over the placeholder URL.
func (p Project) DisplaySource() string {
	if p.ImageData != "" {
		return p.ImageData
	}
	return p.ImageURL
}

// OwnedBy reports whether p belongs to the given owner scope. A nil owner is
// the guest partition and only matches projects with a null owner.
func (p Project) OwnedBy(owner *string) bool {
	return sameOwner(p.Owner, owner)
}

func sameOwner(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Owner returns a scope for email; an empty email is the guest scope.
func Owner(email string) *string {
	if email == "" {
		return nil
	}
	return &email
}

// OwnerLabel renders an owner scope for logs.
func OwnerLabel(owner *string) string {
	if owner == nil {
		return "guest"
	}
	return strconv.Quote(*owner)
}
