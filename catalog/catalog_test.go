package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogIntegrity(t *testing.T) {
	cat := Default()

	require.Len(t, cat.Workshops, 8)

	seen := make(map[string]bool)
	for _, workshop := range cat.Workshops {
		assert.False(t, seen[workshop.ID], "duplicate workshop id %s", workshop.ID)
		seen[workshop.ID] = true

		assert.NotEmpty(t, workshop.Title)
		assert.NotEmpty(t, workshop.Keywords)
		assert.NotEmpty(t, workshop.Instructor)
		for _, keyword := range workshop.Keywords {
			assert.Equal(t, strings.ToLower(keyword), keyword, "keywords must be lowercase for matching")
		}
	}

	for _, speaker := range cat.Speakers {
		for _, id := range speaker.Workshops {
			_, ok := cat.Lookup(id)
			assert.True(t, ok, "speaker %s references unknown workshop %s", speaker.Name, id)
		}
	}
}

func TestLookup(t *testing.T) {
	cat := Default()

	ws, ok := cat.Lookup("WS4")
	require.True(t, ok)
	assert.Equal(t, "Observability and Debugging", ws.Title)

	_, ok = cat.Lookup("WS99")
	assert.False(t, ok)
}

func TestIDsPreserveOrder(t *testing.T) {
	cat := Default()
	assert.Equal(t, []string{"WS1", "WS2", "WS3", "WS4", "WS5", "WS6", "WS7", "WS8"}, cat.IDs())
}
