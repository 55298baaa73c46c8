// SPDX-License-Identifier: Apache-2.0
// Copyright Contributors to the OpenTimelineIO project

package timeline

import (
	"strings"

	"github.com/OpenTimelineIO/otio-cmx3600-adapter/opentime"
)

// MarkerColor is one of the named marker colors.
type MarkerColor string

const (
	MarkerColorPink    MarkerColor = "PINK"
	MarkerColorRed     MarkerColor = "RED"
	MarkerColorOrange  MarkerColor = "ORANGE"
	MarkerColorYellow  MarkerColor = "YELLOW"
	MarkerColorGreen   MarkerColor = "GREEN"
	MarkerColorCyan    MarkerColor = "CYAN"
	MarkerColorBlue    MarkerColor = "BLUE"
	MarkerColorPurple  MarkerColor = "PURPLE"
	MarkerColorMagenta MarkerColor = "MAGENTA"
	MarkerColorBlack   MarkerColor = "BLACK"
	MarkerColorWhite   MarkerColor = "WHITE"
)

var markerColors = map[MarkerColor]bool{
	MarkerColorPink: true, MarkerColorRed: true, MarkerColorOrange: true,
	MarkerColorYellow: true, MarkerColorGreen: true, MarkerColorCyan: true,
	MarkerColorBlue: true, MarkerColorPurple: true, MarkerColorMagenta: true,
	MarkerColorBlack: true, MarkerColorWhite: true,
}

// ParseMarkerColor maps a color word (any case) to a MarkerColor.
func ParseMarkerColor(s string) (MarkerColor, bool) {
	c := MarkerColor(strings.ToUpper(s))
	return c, markerColors[c]
}

// Marker annotates a range of a clip's source time.
type Marker struct {
	Name        string             `json:"name"`
	Color       MarkerColor        `json:"color"`
	MarkedRange opentime.TimeRange `json:"marked_range"`
	Metadata    Metadata           `json:"metadata,omitempty"`
}

// NewMarker creates a marker. An empty color becomes RED.
func NewMarker(name string, markedRange opentime.TimeRange, color MarkerColor, metadata Metadata) *Marker {
	if color == "" {
		color = MarkerColorRed
	}
	return &Marker{Name: name, Color: color, MarkedRange: markedRange, Metadata: metadata}
}

// Clone returns a deep copy of the marker.
func (m *Marker) Clone() *Marker {
	c := *m
	c.Metadata = m.Metadata.Clone()
	return &c
}

// CloneMetadata lets markers be stored in Metadata and survive Metadata.Clone.
func (m *Marker) CloneMetadata() any { return m.Clone() }
