package chunk

import (
	"strings"
	"testing"

	"github.com/poiesic/lexicore/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)
		assert.Equal(t, float32(defaultQualityThreshold), c.QualityThreshold())
	})

	t.Run("invalid bounds", func(t *testing.T) {
		_, err := New(WithBounds(100, 50))
		assert.ErrorIs(t, err, ErrInvalidBounds)
	})

	t.Run("overlap exceeding min", func(t *testing.T) {
		_, err := New(WithBounds(50, 500), WithOverlap(60))
		assert.ErrorIs(t, err, ErrInvalidBounds)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := New(WithQualityThreshold(1.5))
		assert.ErrorIs(t, err, ErrInvalidBounds)
	})
}

func TestSplit_RespectsSectionBoundaries(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	text := "Sec. 11.13. RESIDENCE HOMESTEAD.\n" +
		"An adult is entitled to a homestead exemption on the residence homestead. " +
		"The exemption applies to the portion of the value of the property.\n" +
		"Sec. 11.22. DISABLED VETERANS.\n" +
		"A disabled veteran is entitled to an exemption from taxation of a portion of assessed value."

	chunks := c.Split(text, nil)
	require.Len(t, chunks, 2)

	assert.True(t, strings.HasPrefix(chunks[0].Section, "Sec. 11.13"))
	assert.True(t, strings.HasPrefix(chunks[1].Section, "Sec. 11.22"))
	assert.NotContains(t, chunks[0].Text, "DISABLED VETERANS")
	assert.NotContains(t, chunks[1].Text, "RESIDENCE HOMESTEAD")

	// Positions run in document order.
	assert.Equal(t, 0, chunks[0].Position)
	assert.Equal(t, 1, chunks[1].Position)
}

func TestSplit_LengthBoundsAndOverlap(t *testing.T) {
	c, err := New(WithBounds(100, 300), WithOverlap(40))
	require.NoError(t, err)

	var b strings.Builder
	b.WriteString("Sec. 1.01. LONG SECTION.\n")
	for i := 0; i < 20; i++ {
		b.WriteString("The appraisal review board shall schedule a protest hearing for each timely filed protest. ")
	}

	chunks := c.Split(b.String(), nil)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 300, "chunk exceeds max bound")
		assert.Equal(t, "Sec. 1.01. LONG SECTION.", ch.Section)
	}

	// Adjacent chunks share an overlap window: the start of each chunk after
	// the first repeats the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i].Text
		if len(head) > 30 {
			head = head[:30]
		}
		assert.Contains(t, chunks[i-1].Text, strings.Fields(head)[0])
	}
}

func TestSplit_OversizedSentenceHardSplit(t *testing.T) {
	c, err := New(WithBounds(50, 120), WithOverlap(20))
	require.NoError(t, err)

	long := strings.Repeat("word ", 100) // one 500-char "sentence", no terminators
	chunks := c.Split(long, nil)
	require.Greater(t, len(chunks), 1)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 120)
	}
}

func TestSplit_QualityFlagsJunkChunks(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	terms := []normalize.Term{
		{Canonical: "homestead exemption", Category: normalize.CategoryExemption, Weight: 1.0},
	}

	text := "Sec. 11.13. RESIDENCE HOMESTEAD.\n" +
		"An adult is entitled to a homestead exemption under Section 11.13 of the tax code. " +
		"The homestead exemption removes part of the home value from taxation before the levy is computed.\n" +
		"Sec. 99.99.\nN/A."

	chunks := c.Split(text, terms)
	require.Len(t, chunks, 2)

	good, junk := chunks[0], chunks[1]
	assert.False(t, good.LowQuality, "substantive chunk should pass the threshold, score=%v", good.Quality)
	assert.True(t, junk.LowQuality, "placeholder chunk should be flagged, score=%v", junk.Quality)
	assert.Greater(t, good.Quality, junk.Quality)

	// Terms present in the chunk are recorded on it.
	assert.Contains(t, good.Terms, "homestead exemption")
	assert.Empty(t, junk.Terms)
}

func TestSplit_NoMarkersYieldsSingleSection(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	chunks := c.Split("A short FAQ answer about filing deadlines and required forms for exemption applications.", nil)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].Section)
}

func TestLengthScore(t *testing.T) {
	assert.Equal(t, 1.0, lengthScore(200, 100, 1200))
	assert.Equal(t, 0.5, lengthScore(50, 100, 1200))
	assert.InDelta(t, 0.5, lengthScore(2400, 100, 1200), 1e-9)
}
