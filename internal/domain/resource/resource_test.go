package resource

import (
	"testing"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Type
		wantErr bool
	}{
		{name: "chicken", input: "chicken", want: TypeChicken},
		{name: "trims and lowercases", input: "  Egg ", want: TypeEgg},
		{name: "inventory item", input: "inventory_item", want: TypeInventoryItem},
		{name: "unknown", input: "goat", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseType(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseType(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestAttributesValidate(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		attrs   Attributes
		wantErr bool
	}{
		{
			name:  "chicken complete",
			typ:   TypeChicken,
			attrs: Attributes{"type": "laying_hen", "breed": "leghorn"},
		},
		{
			name:  "egg complete",
			typ:   TypeEgg,
			attrs: Attributes{"size": "large", "color": "brown"},
		},
		{
			name:    "missing key",
			typ:     TypeChicken,
			attrs:   Attributes{"type": "laying_hen"},
			wantErr: true,
		},
		{
			name:    "extra key",
			typ:     TypeChick,
			attrs:   Attributes{"parent_breed": "leghorn", "color": "yellow"},
			wantErr: true,
		},
		{
			name:    "wrong key same count",
			typ:     TypeChick,
			attrs:   Attributes{"breed": "leghorn"},
			wantErr: true,
		},
		{
			name:    "empty value",
			typ:     TypeEgg,
			attrs:   Attributes{"size": "large", "color": "  "},
			wantErr: true,
		},
		{
			name:    "unknown type",
			typ:     Type("goat"),
			attrs:   Attributes{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attrs.Validate(tt.typ)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAttributesValidateFilter(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		attrs   Attributes
		wantErr bool
	}{
		{name: "empty filter allowed", typ: TypeEgg, attrs: Attributes{}},
		{name: "nil filter allowed", typ: TypeEgg, attrs: nil},
		{name: "subset", typ: TypeEgg, attrs: Attributes{"size": "large"}},
		{name: "full set", typ: TypeEgg, attrs: Attributes{"size": "large", "color": "brown"}},
		{name: "unknown key", typ: TypeEgg, attrs: Attributes{"weight": "60g"}, wantErr: true},
		{name: "empty value", typ: TypeEgg, attrs: Attributes{"size": ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attrs.ValidateFilter(tt.typ)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAttributesKeyIsCanonical(t *testing.T) {
	a := Attributes{"breed": "leghorn", "type": "laying_hen"}
	b := Attributes{"type": "laying_hen", "breed": "leghorn"}

	if a.Key(TypeChicken) != b.Key(TypeChicken) {
		t.Errorf("Key() depends on map order: %q vs %q", a.Key(TypeChicken), b.Key(TypeChicken))
	}

	other := Attributes{"type": "laying_hen", "breed": "sussex"}
	if a.Key(TypeChicken) == other.Key(TypeChicken) {
		t.Errorf("different variants share key %q", a.Key(TypeChicken))
	}
}

func TestAttributesMatches(t *testing.T) {
	lot := Attributes{"size": "large", "color": "brown"}

	tests := []struct {
		name   string
		filter Attributes
		want   bool
	}{
		{name: "empty matches all", filter: Attributes{}, want: true},
		{name: "partial match", filter: Attributes{"size": "large"}, want: true},
		{name: "full match", filter: Attributes{"size": "large", "color": "brown"}, want: true},
		{name: "value mismatch", filter: Attributes{"color": "white"}, want: false},
		{name: "key absent from lot", filter: Attributes{"grade": "A"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lot.Matches(tt.filter); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}
