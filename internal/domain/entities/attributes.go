package entities

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AttributeMapping translates one external field (dotted path into a JSON
// object, e.g. "links.avatar.href") into an internal attribute name.
type AttributeMapping struct {
	External string
	Internal string
}

// AttributeMappings is an ordered translation table. When several external
// fields feed the same internal attribute, the first non-empty one wins.
type AttributeMappings []AttributeMapping

// Attributes holds translated values keyed by internal attribute name.
type Attributes map[string]any

// Apply translates a decoded JSON object. The table and the input are left untouched.
func (m AttributeMappings) Apply(raw map[string]any) Attributes {
	attrs := make(Attributes, len(m))
	for _, mapping := range m {
		if _, done := attrs[mapping.Internal]; done {
			continue
		}
		value, ok := lookupPath(raw, mapping.External)
		if !ok || isEmptyValue(value) {
			continue
		}
		attrs[mapping.Internal] = value
	}
	return attrs
}

func lookupPath(raw map[string]any, path string) (any, bool) {
	var current any = raw
	for _, key := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = object[key]
		if !ok {
			return nil, false
		}
	}
	return current, current != nil
}

func isEmptyValue(value any) bool {
	s, ok := value.(string)
	return ok && s == ""
}

// String returns the attribute as a string, formatting numbers and booleans.
func (a Attributes) String(name string) string {
	switch v := a[name].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Bool returns the attribute as a boolean; missing values are false.
func (a Attributes) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

// Int returns the attribute as an integer; missing values are 0.
func (a Attributes) Int(name string) int64 {
	v, _ := a[name].(float64)
	return int64(v)
}

// Strings returns a string list attribute, skipping non-string elements.
func (a Attributes) Strings(name string) []string {
	list, _ := a[name].([]any)
	result := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// UUID returns the attribute normalized with NormalizeUUID.
func (a Attributes) UUID(name string) string {
	return NormalizeUUID(a.String(name))
}

// NormalizeUUID brings Bitbucket identifiers ("{A1C2...}" or bare) into the
// canonical lower-case braced form. Values that are not UUIDs are returned as is.
func NormalizeUUID(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := uuid.Parse(strings.Trim(value, "{}"))
	if err != nil {
		return value
	}
	return "{" + parsed.String() + "}"
}
