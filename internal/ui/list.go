package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/flowsift/internal/models"
)

var _ list.Item = resultItem{}

// resultItem wraps [models.ClassificationResult] to implement [list.Item].
type resultItem struct {
	result models.ClassificationResult
}

func (i resultItem) FilterValue() string {
	return i.result.Metadata.Name + " " + i.result.Metadata.ArtistList()
}

func (i resultItem) Title() string {
	return fmt.Sprintf("%s %s", verdictGlyph(i.result.MeetsCriteria), i.result.Metadata.Name)
}

func (i resultItem) Description() string {
	desc := i.result.Metadata.ArtistList()
	if i.result.Features.Tempo > 0 {
		desc = fmt.Sprintf("%s • %.0f BPM", desc, i.result.Features.Tempo)
	}
	return desc
}

func verdictGlyph(meets bool) string {
	if meets {
		return styles.pass.Render("✓")
	}
	return styles.fail.Render("✗")
}
