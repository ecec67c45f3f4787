// Package resource defines the closed set of farm resource variants tracked
// by the stock ledger. Each resource type carries its own attribute schema;
// a lot is identified by the pair (type, full attribute set).
package resource

import (
	"fmt"
	"sort"
	"strings"

	"farmstock/internal/core/apperror"
)

// Type identifies what kind of stock a lot holds.
type Type string

const (
	TypeChicken       Type = "chicken"
	TypeChick         Type = "chick"
	TypeEgg           Type = "egg"
	TypeInventoryItem Type = "inventory_item"
)

// ParseType validates and converts a raw string to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", apperror.NewValidation("unknown resource type").
			WithDetail("field", "resource_type").
			WithDetail("value", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known resource types.
func (t Type) Valid() bool {
	switch t {
	case TypeChicken, TypeChick, TypeEgg, TypeInventoryItem:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// schema is the closed attribute key set per resource type.
// Keys are listed in canonical order.
var schema = map[Type][]string{
	TypeChicken:       {"type", "breed"},
	TypeChick:         {"parent_breed"},
	TypeEgg:           {"size", "color"},
	TypeInventoryItem: {"category", "item_name"},
}

// Schema returns the canonical attribute keys for a resource type.
func Schema(t Type) []string {
	keys := schema[t]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Attributes is the attribute set of a lot or a lookup filter.
// Values are free-form non-empty strings; keys must belong to the type's schema.
type Attributes map[string]string

// Validate checks that attrs is the EXACT attribute set for t:
// every schema key present, no extra keys, no empty values.
// Used for lot identity (create, exact lookup, reconciliation events).
func (a Attributes) Validate(t Type) error {
	if !t.Valid() {
		return apperror.NewValidation("unknown resource type").
			WithDetail("field", "resource_type").
			WithDetail("value", string(t))
	}

	keys := schema[t]
	if len(a) != len(keys) {
		return apperror.NewValidation("attribute set does not match resource schema").
			WithDetail("resource_type", string(t)).
			WithDetail("expected_keys", keys)
	}

	for _, key := range keys {
		v, ok := a[key]
		if !ok {
			return apperror.NewValidation(fmt.Sprintf("missing required attribute %q", key)).
				WithDetail("resource_type", string(t)).
				WithDetail("field", key)
		}
		if strings.TrimSpace(v) == "" {
			return apperror.NewValidation(fmt.Sprintf("attribute %q must not be empty", key)).
				WithDetail("resource_type", string(t)).
				WithDetail("field", key)
		}
	}

	return nil
}

// ValidateFilter checks that attrs is a SUBSET of the type's schema.
// An empty filter is allowed (matches every lot of the type).
// Used for availability queries.
func (a Attributes) ValidateFilter(t Type) error {
	if !t.Valid() {
		return apperror.NewValidation("unknown resource type").
			WithDetail("field", "resource_type").
			WithDetail("value", string(t))
	}

	for key, v := range a {
		if !isSchemaKey(t, key) {
			return apperror.NewValidation(fmt.Sprintf("unknown attribute %q", key)).
				WithDetail("resource_type", string(t)).
				WithDetail("field", key)
		}
		if strings.TrimSpace(v) == "" {
			return apperror.NewValidation(fmt.Sprintf("attribute %q must not be empty", key)).
				WithDetail("resource_type", string(t)).
				WithDetail("field", key)
		}
	}

	return nil
}

// Matches reports whether a (a full lot attribute set) satisfies the partial
// filter f: every key in f is present in a with an equal value.
func (a Attributes) Matches(f Attributes) bool {
	for key, want := range f {
		if got, ok := a[key]; !ok || got != want {
			return false
		}
	}
	return true
}

// Equal reports whether two attribute sets are identical.
func (a Attributes) Equal(other Attributes) bool {
	if len(a) != len(other) {
		return false
	}
	return a.Matches(other)
}

// Key returns a deterministic string form of (type, attributes), suitable as
// a uniqueness key. Keys are rendered in canonical schema order; unknown keys
// (filters only) are appended sorted.
func (a Attributes) Key(t Type) string {
	var b strings.Builder
	b.WriteString(string(t))

	seen := make(map[string]bool, len(a))
	for _, key := range schema[t] {
		if v, ok := a[key]; ok {
			b.WriteString("|")
			b.WriteString(key)
			b.WriteString("=")
			b.WriteString(v)
			seen[key] = true
		}
	}

	var extra []string
	for key := range a {
		if !seen[key] {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		b.WriteString("|")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(a[key])
	}

	return b.String()
}

// Clone returns a copy of the attribute set.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func isSchemaKey(t Type, key string) bool {
	for _, k := range schema[t] {
		if k == key {
			return true
		}
	}
	return false
}
