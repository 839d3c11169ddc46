package presentation

import (
	"github.com/malikkrehic/action/internal/action"
)

// ActionDTO represents a registered action for presentation
type ActionDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DataType    string   `json:"data_type"`
	Fields      []string `json:"fields,omitempty"`
}

// ActionListDTO is the listing shape shared by the CLI and the HTTP API.
type ActionListDTO struct {
	Actions map[string]ActionDTO `json:"actions"`
	Count   int                  `json:"count"`
}

// FromHandler converts a handler to a DTO. Fields are only present for
// handlers that expose their payload fields.
func FromHandler(h action.Handler) ActionDTO {
	desc := h.Descriptor()
	dto := ActionDTO{
		Name:        desc.Name,
		Description: desc.Description,
		DataType:    desc.PayloadType,
	}
	if fl, ok := h.(action.FieldLister); ok {
		dto.Fields = fl.PayloadFields()
	}
	return dto
}

// FromDescriptor converts a descriptor to a DTO without field information.
func FromDescriptor(desc action.Descriptor) ActionDTO {
	return ActionDTO{
		Name:        desc.Name,
		Description: desc.Description,
		DataType:    desc.PayloadType,
	}
}

// FromRegistry builds the listing for every action in reg.
func FromRegistry(reg *action.Registry) ActionListDTO {
	all := reg.All()
	list := ActionListDTO{
		Actions: make(map[string]ActionDTO, len(all)),
		Count:   len(all),
	}
	for name, h := range all {
		list.Actions[name] = FromHandler(h)
	}
	return list
}
