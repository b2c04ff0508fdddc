// pkg/registry/schema.go
package registry

// FieldKind selects how a field is rendered.
type FieldKind string

const (
	KindText          FieldKind = "text"
	KindTextarea      FieldKind = "textarea"
	KindCheckboxGroup FieldKind = "checkbox_group"
)

// FieldRegistry describes the fields shown on the prompt-builder page.
type FieldRegistry struct {
	Version     string  `json:"version"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Intro       string  `json:"intro"`
	LastUpdated string  `json:"lastUpdated,omitempty"`
	Fields      []Field `json:"fields"`
}

// Field is one input on the page; its id is also its payload key.
// Required is a visual marker only.
type Field struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Kind        FieldKind `json:"kind"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
}
