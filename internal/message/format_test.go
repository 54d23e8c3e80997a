package message

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/closurewatch/closurewatch/internal/closure"
)

func TestClosure(t *testing.T) {
	tests := []struct {
		name  string
		alert closure.Alert
		want  string
	}{
		{
			name: "full closure both directions with range and location",
			alert: closure.Alert{
				RoadName:            "I-70",
				BothDirections:      true,
				StartMileMarker:     "203",
				EndMileMarker:       "213",
				RoadwayClosureID:    "4",
				LocationDescription: "Eisenhower Tunnel",
				Description:         "Safety closure due to adverse conditions.",
			},
			want: "New (full) closure on I-70 in both directions from mile marker 203 to 213" +
				" (Eisenhower Tunnel). From CODOT: Safety closure due to adverse conditions.",
		},
		{
			name: "partial closure one direction at single marker",
			alert: closure.Alert{
				RoadName:         "US 6",
				Direction:        "East",
				StartMileMarker:  "226",
				RoadwayClosureID: "2",
				Description:      "Right lane closed.",
			},
			want: "New (partial) closure on US 6 going East at mile marker 226. From CODOT: Right lane closed.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Closure(tt.alert))
		})
	}
}

func TestOpening(t *testing.T) {
	tests := []struct {
		name  string
		alert closure.Alert
		want  string
	}{
		{
			name: "reopening with range and location",
			alert: closure.Alert{
				RoadName:            "I-70",
				BothDirections:      true,
				StartMileMarker:     "203",
				EndMileMarker:       "213",
				LocationDescription: "Eisenhower Tunnel",
			},
			want: "Road reopened on I-70 in both directions from mile marker 203 to 213 (Eisenhower Tunnel).",
		},
		{
			name: "reopening without location description",
			alert: closure.Alert{
				RoadName:        "CO 9",
				Direction:       "North",
				StartMileMarker: "86",
			},
			want: "Road reopened on CO 9 going North at mile marker 86.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Opening(tt.alert))
		})
	}
}

func TestOpeningHasNoSeverity(t *testing.T) {
	a := closure.Alert{RoadName: "I-70", Direction: "West", StartMileMarker: "1", RoadwayClosureID: "4"}
	assert.NotContains(t, Opening(a), "(full)")
}
