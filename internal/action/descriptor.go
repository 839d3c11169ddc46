package action

import "strings"

// DefaultDescription is reported for actions registered without one.
const DefaultDescription = "No description provided"

// Descriptor is the static identity of a registered action.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PayloadType string `json:"data_type"`
}

func (d Descriptor) normalized() Descriptor {
	d.Name = strings.TrimSpace(d.Name)
	if strings.TrimSpace(d.Description) == "" {
		d.Description = DefaultDescription
	}
	return d
}
