package domain

import (
	"fmt"
	"strings"
	"time"
)

// ViewMode is the surface on which a document was read.
type ViewMode uint8

// Available view modes.
const (
	ViewStory ViewMode = iota
	ViewReader
	ViewWeb
)

// String returns the lower case name of the mode.
func (m ViewMode) String() string {
	switch m {
	case ViewStory:
		return "story"
	case ViewReader:
		return "reader"
	case ViewWeb:
		return "web"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseViewMode parses the names returned by String.
func ParseViewMode(s string) (ViewMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "story":
		return ViewStory, nil
	case "reader":
		return ViewReader, nil
	case "web":
		return ViewWeb, nil
	default:
		return ViewStory, fmt.Errorf("%w: unknown view mode %q", ErrInvalidInput, s)
	}
}

// ActiveDocumentData is the engine computed payload kept only while its
// document is active.
type ActiveDocumentData struct {
	// Embedding is the document vector computed by the engine.
	Embedding []float32

	// ViewTime accumulates dwell time per view mode.
	ViewTime map[ViewMode]time.Duration
}

// AddViewTime returns a copy of d with duration added to mode.
func (d ActiveDocumentData) AddViewTime(mode ViewMode, duration time.Duration) ActiveDocumentData {
	viewTime := make(map[ViewMode]time.Duration, len(d.ViewTime)+1)
	for k, v := range d.ViewTime {
		viewTime[k] = v
	}
	viewTime[mode] += duration
	return ActiveDocumentData{Embedding: d.Embedding, ViewTime: viewTime}
}

// TotalViewTime sums the dwell time across all modes.
func (d ActiveDocumentData) TotalViewTime() time.Duration {
	var total time.Duration
	for _, v := range d.ViewTime {
		total += v
	}
	return total
}
