package orientation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	for o := Unknown; o <= FaceDown; o++ {
		assert.Equal(t, o, Parse(o.String()))
	}
	assert.Equal(t, Unknown, Parse("sideways"))
	assert.Equal(t, "unknown", Orientation(42).String())
}

func TestJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		O Orientation `json:"orientation"`
	}{LandscapeLeft})
	require.NoError(t, err)
	assert.JSONEq(t, `{"orientation":"landscapeLeft"}`, string(b))

	var o Orientation
	require.NoError(t, json.Unmarshal([]byte(`"portraitUpsideDown"`), &o))
	assert.Equal(t, PortraitUpsideDown, o)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		ax, ay, az float64
		want       Orientation
	}{
		{"upright", 0.05, -0.98, 0.1, Portrait},
		{"upside down", -0.1, 0.97, 0.2, PortraitUpsideDown},
		{"left edge down", -0.99, 0.1, 0.05, LandscapeLeft},
		{"right edge down", 0.99, -0.1, 0.05, LandscapeRight},
		{"on the table", 0.02, 0.01, -1, FaceUp},
		{"screen down", 0.02, 0.01, 1, FaceDown},
		{"free fall", 0, 0, 0, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ax, tt.ay, tt.az))
		})
	}
}

func TestCycle(t *testing.T) {
	seen := []Orientation{Portrait}
	for i := 0; i < 4; i++ {
		seen = append(seen, Cycle(seen[len(seen)-1]))
	}
	assert.Equal(t, []Orientation{Portrait, LandscapeRight, PortraitUpsideDown, LandscapeLeft, Portrait}, seen)
	assert.Equal(t, Portrait, Cycle(FaceUp))
}
