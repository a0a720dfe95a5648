package parallax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/motion_parallax/internal/orientation"
)

type remapCase struct {
	o      orientation.Orientation
	cx, cy float64
	wantX  float64
	wantY  float64
}

func checkTable(t *testing.T, tbl Table, cases []remapCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.o.String(), func(t *testing.T) {
			x, y := tbl.Remap(tc.o, tc.cx, tc.cy)
			assert.Equal(t, tc.wantX, x, "x")
			assert.Equal(t, tc.wantY, y, "y")
		})
	}
}

func TestAccelerometerTable(t *testing.T) {
	checkTable(t, AccelerometerTable, []remapCase{
		{o: orientation.Portrait, cx: 3, cy: -2, wantX: 3, wantY: -2},
		{o: orientation.PortraitUpsideDown, cx: 3, cy: -2, wantX: -3, wantY: 2},
		{o: orientation.LandscapeLeft, cx: 2, cy: 4, wantX: -4, wantY: -2},
		{o: orientation.LandscapeRight, cx: 2, cy: 4, wantX: 4, wantY: 2},
		{o: orientation.FaceUp, cx: 2, cy: 4, wantX: 2, wantY: 4},
		{o: orientation.FaceDown, cx: 2, cy: 4, wantX: 2, wantY: 4},
		{o: orientation.Unknown, cx: 2, cy: 4, wantX: 2, wantY: 4},
	})
}

func TestGyroscopeTable(t *testing.T) {
	checkTable(t, GyroscopeTable, []remapCase{
		{o: orientation.Portrait, cx: 2, cy: 4, wantX: 4, wantY: 2},
		{o: orientation.PortraitUpsideDown, cx: 2, cy: 4, wantX: 4, wantY: -2},
		{o: orientation.LandscapeLeft, cx: 2, cy: 4, wantX: -2, wantY: -4},
		{o: orientation.LandscapeRight, cx: 2, cy: 4, wantX: -2, wantY: 4},
		{o: orientation.FaceUp, cx: 2, cy: 4, wantX: 2, wantY: 4},
		{o: orientation.FaceDown, cx: 2, cy: 4, wantX: 2, wantY: 4},
		{o: orientation.Unknown, cx: 2, cy: 4, wantX: 2, wantY: 4},
	})
}

func TestZeroOnUnknown(t *testing.T) {
	tbl := ZeroOnUnknown(AccelerometerTable)
	assert.Equal(t, "accelerometer+zero", tbl.Name)

	checkTable(t, tbl, []remapCase{
		{o: orientation.Portrait, cx: 2, cy: 4, wantX: 2, wantY: 4},
		{o: orientation.LandscapeRight, cx: 2, cy: 4, wantX: 4, wantY: 2},
		{o: orientation.FaceUp, cx: 2, cy: 4, wantX: 0, wantY: 0},
		{o: orientation.FaceDown, cx: 2, cy: 4, wantX: 0, wantY: 0},
		{o: orientation.Unknown, cx: 2, cy: 4, wantX: 0, wantY: 0},
	})

	// the original table is untouched
	assert.False(t, AccelerometerTable.ZeroFallback)
}

func TestTableByName(t *testing.T) {
	tbl, err := TableByName("gyroscope")
	require.NoError(t, err)
	assert.Equal(t, GyroscopeTable.Name, tbl.Name)

	_, err = TableByName("compass")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTableString(t *testing.T) {
	assert.Equal(t,
		"accelerometer portrait=(cx, cy) portraitUpsideDown=(-cx, -cy) landscapeLeft=(-cy, -cx) landscapeRight=(cy, cx) other=(cx, cy)",
		AccelerometerTable.String())
	assert.Contains(t, ZeroOnUnknown(GyroscopeTable).String(), "other=zero")
}
