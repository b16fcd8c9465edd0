package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentarySegmentRenderable(t *testing.T) {
	ok := DocumentarySegment{
		Narration:         "A concise narrated line under the budget",
		VisualDescription: "subject walking through an office",
	}
	assert.True(t, ok.Renderable())

	noNarration := ok
	noNarration.Narration = "   "
	assert.False(t, noNarration.Renderable())

	noVisual := ok
	noVisual.VisualDescription = ""
	assert.False(t, noVisual.Renderable())

	atBudget := ok
	atBudget.Narration = strings.Repeat("word ", 15)
	assert.True(t, atBudget.Renderable(), "exactly fifteen words is within budget")

	overBudget := ok
	overBudget.Narration = strings.Repeat("word ", 16)
	assert.False(t, overBudget.Renderable())
}

func TestDocumentaryHasRenderableSegment(t *testing.T) {
	empty := Documentary{}
	assert.False(t, empty.HasRenderableSegment())

	allBlank := Documentary{Segments: []DocumentarySegment{{Title: "Silent"}}}
	assert.False(t, allBlank.HasRenderableSegment())

	mixed := Documentary{Segments: []DocumentarySegment{
		{Title: "Silent"},
		{Narration: "spoken", VisualDescription: "a scene"},
	}}
	assert.True(t, mixed.HasRenderableSegment())
}
