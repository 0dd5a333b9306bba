package resolver

import (
	"regexp"
	"strings"
)

// MarkerKind distinguishes opening and closing directive markers.
type MarkerKind int

const (
	// MarkerOpen is `{{> path }}`: an inline directive, or the start of a
	// block when a matching close follows.
	MarkerOpen MarkerKind = iota
	// MarkerClose is `{{/ path }}`, the end of a block.
	MarkerClose
)

// String returns the string representation of the kind
func (k MarkerKind) String() string {
	switch k {
	case MarkerOpen:
		return "open"
	case MarkerClose:
		return "close"
	default:
		return "unknown"
	}
}

// Marker is one directive marker found in fragment text, with its byte span.
type Marker struct {
	Kind  MarkerKind
	Path  string
	Start int
	End   int
}

// Block is an opening marker paired with the nearest following closing
// marker of the same path.
type Block struct {
	Open  Marker
	Close Marker
	// Body is the raw text between the markers.
	Body string
}

var (
	markerPattern      = regexp.MustCompile(`\{\{\s*([>/])\s*([^{}]*?)\s*\}\}`)
	placeholderPattern = regexp.MustCompile(`\{\{\s*content\s*\}\}`)
)

// Markers returns every directive marker in text in order of appearance.
func Markers(text string) []Marker {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	markers := make([]Marker, 0, len(matches))
	for _, m := range matches {
		kind := MarkerOpen
		if text[m[2]:m[3]] == "/" {
			kind = MarkerClose
		}
		markers = append(markers, Marker{
			Kind:  kind,
			Path:  strings.TrimSpace(text[m[4]:m[5]]),
			Start: m[0],
			End:   m[1],
		})
	}
	return markers
}

// HasMarkers reports whether text still contains directive syntax.
func HasMarkers(text string) bool {
	return markerPattern.MatchString(text)
}

// pairBlock looks for the close matching markers[i], returning its index or
// -1 when markers[i] is not the start of a block.
func pairBlock(markers []Marker, i int) int {
	open := markers[i]
	if open.Kind != MarkerOpen {
		return -1
	}
	for j := i + 1; j < len(markers); j++ {
		if markers[j].Kind == MarkerClose && markers[j].Path == open.Path {
			return j
		}
	}
	return -1
}

// Blocks returns the block directives in text, scanning left to right. Markers
// inside a block body belong to that body and are not paired on their own.
func Blocks(text string) []Block {
	markers := Markers(text)
	var blocks []Block
	for i := 0; i < len(markers); i++ {
		j := pairBlock(markers, i)
		if j < 0 {
			continue
		}
		blocks = append(blocks, Block{
			Open:  markers[i],
			Close: markers[j],
			Body:  text[markers[i].End:markers[j].Start],
		})
		i = j
	}
	return blocks
}

// substituteBody replaces every content placeholder in target with body.
func substituteBody(target, body string) string {
	return placeholderPattern.ReplaceAllLiteralString(target, body)
}
