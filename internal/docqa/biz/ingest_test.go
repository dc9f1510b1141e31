package biz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSections(t *testing.T) {
	t.Run("labels known headers", func(t *testing.T) {
		text := "Carrier Details\nSwift Logistics LLC, MC-123456\nRate Breakdown\nLine haul $1,500\nFuel surcharge $200"

		sections := DetectSections(text)
		require.Len(t, sections, 2)

		assert.Equal(t, "Carrier Details", sections[0].Label)
		assert.Contains(t, sections[0].Text, "Swift Logistics")
		assert.Equal(t, "Rate Breakdown", sections[1].Label)
		assert.Contains(t, sections[1].Text, "Line haul $1,500")
	})

	t.Run("text before first header is untitled", func(t *testing.T) {
		text := "Load Confirmation #998\nPickup\n123 Main St, Dallas TX"

		sections := DetectSections(text)
		require.Len(t, sections, 2)

		assert.Equal(t, UntitledSection, sections[0].Label)
		assert.Contains(t, sections[0].Text, "Load Confirmation #998")
		assert.Equal(t, "Pickup", sections[1].Label)
	})

	t.Run("no headers yields single untitled section", func(t *testing.T) {
		sections := DetectSections("just some free text with no structure")
		require.Len(t, sections, 1)
		assert.Equal(t, UntitledSection, sections[0].Label)
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Empty(t, DetectSections("   \n\n  "))
	})

	t.Run("headers are case insensitive", func(t *testing.T) {
		sections := DetectSections("intro\nCARRIER DETAILS\nacme transport\nrate breakdown\n$900 flat")
		require.Len(t, sections, 3)
		assert.Equal(t, "Carrier Details", sections[1].Label)
		assert.Equal(t, "Rate Breakdown", sections[2].Label)
	})

	t.Run("longer phrases win over substrings", func(t *testing.T) {
		sections := DetectSections("preamble\nShipper & Carrier Instructions\ndo not double broker")
		require.Len(t, sections, 2)
		assert.Equal(t, "Shipper & Carrier Instructions", sections[1].Label)
	})

	t.Run("sections cover the whole text", func(t *testing.T) {
		text := "head\nPickup\nfirst stop\nDrop\nlast stop"
		sections := DetectSections(text)

		var joined strings.Builder
		for _, s := range sections {
			joined.WriteString(s.Text)
		}
		for _, word := range []string{"head", "first stop", "last stop"} {
			assert.Contains(t, joined.String(), word)
		}
	})
}

func TestSectionGroup(t *testing.T) {
	assert.Equal(t, "carrier_info", SectionGroup("Carrier Details"))
	assert.Equal(t, "carrier_info", SectionGroup("Driver Details"))
	assert.Equal(t, "rate_info", SectionGroup("Rate Breakdown"))
	assert.Equal(t, "location_info", SectionGroup("Stops"))
	assert.Equal(t, "instructions", SectionGroup("Standing Instructions"))
	assert.Equal(t, UntitledSection, SectionGroup("Nonsense"))
}

func TestBuildChunks(t *testing.T) {
	ing := NewIngester(1000, 200)

	t.Run("chunks carry section metadata and sequential indexes", func(t *testing.T) {
		text := "Carrier Details\n" + strings.Repeat("Swift Logistics LLC MC-123456 dispatch line. ", 40) +
			"\nRate Breakdown\n" + strings.Repeat("Line haul $1,500 fuel surcharge $200. ", 40)

		chunks, err := ing.BuildChunks("doc-1", "rc.pdf", text)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		seen := map[string]bool{}
		for i, c := range chunks {
			assert.Equal(t, "doc-1", c.DocumentID)
			assert.Equal(t, "rc.pdf", c.DocumentName)
			assert.Equal(t, i, c.ChunkIndex)
			assert.Equal(t, "text", c.ChunkType)
			assert.False(t, seen[c.ID], "chunk IDs must be unique")
			seen[c.ID] = true
			assert.GreaterOrEqual(t, len(c.Content), minChunkLen)
			assert.LessOrEqual(t, len(c.Content), 1100, "chunk should respect size bound with slack for overlap joins")
		}

		assert.Equal(t, "Carrier Details", chunks[0].Section)
		assert.Equal(t, "Rate Breakdown", chunks[len(chunks)-1].Section)
	})

	t.Run("no retained content is lost to chunking", func(t *testing.T) {
		// Cleaning drops page markers and sub-minimum fragments, so exact
		// reconstruction is out of reach; what must hold is that every
		// surviving phrase lands intact in some chunk and every chunk is a
		// span of the source.
		phrases := []string{
			"Swift Logistics LLC holds authority MC-123456",
			"dispatch reachable around the clock at 555-0100",
			"line haul of $1,400.00 covers the committed lane",
			"fuel surcharge of $100.50 settles against the weekly index",
			"detention billing starts after two hours on site",
		}
		text := "Carrier Details\n" + phrases[0] + ". " + phrases[1] + ".\n" +
			"Rate Breakdown\n" + phrases[2] + ". " + phrases[3] + ". " + phrases[4] + "."

		small := NewIngester(120, 30)
		chunks, err := small.BuildChunks("doc-3", "rc.txt", text)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 2, "chunk size must force multiple chunks")

		for _, phrase := range phrases {
			found := false
			for _, c := range chunks {
				if strings.Contains(c.Content, phrase) {
					found = true
					break
				}
			}
			assert.True(t, found, "phrase %q must survive into a chunk intact", phrase)
		}

		for _, c := range chunks {
			for _, line := range strings.Split(c.Content, "\n") {
				assert.Contains(t, text, strings.TrimSuffix(strings.TrimSpace(line), "."),
					"chunk lines must be spans of the source text")
			}
		}
	})

	t.Run("short fragments are dropped", func(t *testing.T) {
		chunks, err := ing.BuildChunks("doc-2", "tiny.txt", "ok")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("chunk ids are deterministic", func(t *testing.T) {
		assert.Equal(t, ChunkID("doc-9", 3), ChunkID("doc-9", 3))
		assert.NotEqual(t, ChunkID("doc-9", 3), ChunkID("doc-9", 4))
		assert.NotEqual(t, ChunkID("doc-9", 3), ChunkID("doc-8", 3))
	})
}
