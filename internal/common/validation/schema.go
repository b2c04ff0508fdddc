package validation

import (
	"fmt"
	"sort"
)

// JSONSchema is the subset of JSON Schema used to check decoded JSON request
// bodies (map[string]interface{} from encoding/json).
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
	MinProperties        int                 `json:"minProperties,omitempty"`
}

type Property struct {
	Type                 string              `json:"type"`
	Description          string              `json:"description,omitempty"`
	Properties           map[string]Property `json:"properties,omitempty"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput checks input against schema. Errors are sorted by field so
// results are stable across map iteration orders.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errs := validateObject("", input, schema.Properties, schema.Required, schema.AdditionalProperties)

	if schema.MinProperties > 0 && len(input) < schema.MinProperties {
		errs = append(errs, ValidationError{
			Field:   "",
			Message: fmt.Sprintf("at least %d field(s) required", schema.MinProperties),
			Code:    "TOO_FEW_FIELDS",
		})
	}

	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return &ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

func validateObject(prefix string, obj map[string]interface{}, props map[string]Property, required []string, additional bool) []ValidationError {
	var errs []ValidationError

	for _, name := range required {
		if _, ok := obj[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   join(prefix, name),
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for name, value := range obj {
		prop, ok := props[name]
		if !ok {
			if !additional {
				errs = append(errs, ValidationError{
					Field:   join(prefix, name),
					Message: "field not allowed",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		errs = append(errs, validateField(join(prefix, name), value, prop)...)
	}

	return errs
}

func validateField(field string, value interface{}, prop Property) []ValidationError {
	if err := validateType(value, prop.Type); err != nil {
		return []ValidationError{{Field: field, Message: err.Error(), Code: "INVALID_TYPE"}}
	}

	if obj, ok := value.(map[string]interface{}); ok && prop.Properties != nil {
		return validateObject(field, obj, prop.Properties, prop.Required, prop.AdditionalProperties)
	}
	return nil
}

func validateType(value interface{}, expected string) error {
	ok := true
	switch expected {
	case "string":
		_, ok = value.(string)
	case "number":
		_, ok = value.(float64)
	case "boolean":
		_, ok = value.(bool)
	case "object":
		_, ok = value.(map[string]interface{})
	case "array":
		_, ok = value.([]interface{})
	case "null":
		ok = value == nil
	}
	if !ok {
		return fmt.Errorf("expected %s, got %s", expected, jsonTypeName(value))
	}
	return nil
}

func jsonTypeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	}
	return fmt.Sprintf("%T", value)
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// GetErrorMessages returns "field: message" strings.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}
