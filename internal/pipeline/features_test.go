package pipeline

import (
	"reflect"
	"testing"
)

func TestFilterFeatures(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []TokenFeature
	}{
		{
			name: "primitives survive in source order",
			text: `{"size":"large","count":3,"rare":true,"nested":{"a":1}}`,
			want: []TokenFeature{
				{Name: "size", Value: "large"},
				{Name: "count", Value: float64(3)},
				{Name: "rare", Value: true},
			},
		},
		{
			name: "non-primitive values dropped silently",
			text: `{"palette":["red","blue"],"shape":null,"meta":{"x":1},"name":"orbit"}`,
			want: []TokenFeature{{Name: "name", Value: "orbit"}},
		},
		{
			name: "empty object",
			text: `{}`,
			want: []TokenFeature{},
		},
		{
			name: "top-level array degrades to empty",
			text: `["a","b"]`,
			want: []TokenFeature{},
		},
		{
			name: "top-level null degrades to empty",
			text: `null`,
			want: []TokenFeature{},
		},
		{
			name: "top-level string degrades to empty",
			text: `"features"`,
			want: []TokenFeature{},
		},
		{
			name: "malformed text degrades to empty",
			text: `{"size": "large"`,
			want: []TokenFeature{},
		},
		{
			name: "not json at all",
			text: `undefined`,
			want: []TokenFeature{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterFeatures(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("filterFeatures(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}
