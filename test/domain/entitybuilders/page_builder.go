//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"encoding/json"

	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// PageBuilder creates Bitbucket paginated response bodies.
type PageBuilder struct {
	*testkit.BaseBuilder
	values []any
	next   string
}

// NewPageBuilder creates an empty last page.
func NewPageBuilder() *PageBuilder {
	return &PageBuilder{BaseBuilder: testkit.NewBaseBuilder()}
}

// WithValues appends records to the page.
func (b *PageBuilder) WithValues(values ...any) *PageBuilder {
	b.values = append(b.values, values...)
	return b
}

// WithNext sets the link to the following page.
func (b *PageBuilder) WithNext(next string) *PageBuilder {
	b.next = next
	return b
}

// Build creates the page body (satisfies testkit.Builder interface).
func (b *PageBuilder) Build() interface{} {
	return b.BuildJSON()
}

// BuildJSON renders the page as the API sends it.
func (b *PageBuilder) BuildJSON() string {
	values := b.values
	if values == nil {
		values = []any{}
	}
	page := map[string]any{
		"values":  values,
		"pagelen": len(values),
	}
	if b.next != "" {
		page["next"] = b.next
	}
	data, err := json.Marshal(page)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Reset clears the builder state, allowing it to be reused.
func (b *PageBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.values = nil
	b.next = ""
	return b
}

// Clone creates a deep copy of the builder.
func (b *PageBuilder) Clone() testkit.Builder {
	return &PageBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		values:      append([]any(nil), b.values...),
		next:        b.next,
	}
}
