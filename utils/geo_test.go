package utils

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	tiananmen := orb.Point{116.397128, 39.916527}
	assert.InDelta(t, 0, HaversineDistance(tiananmen, tiananmen), 1e-9)

	// 经度差 0.01 度，北纬 39.9 度处约 853 米
	east := orb.Point{116.407128, 39.916527}
	assert.InDelta(t, 853, HaversineDistance(tiananmen, east), 5)

	// 纬度差 1 度约 111.2 公里
	north := orb.Point{116.397128, 40.916527}
	assert.InDelta(t, 111195, HaversineDistance(tiananmen, north), 50)
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "0m", FormatDistance(0))
	assert.Equal(t, "999m", FormatDistance(999))
	assert.Equal(t, "1.0km", FormatDistance(1000))
	assert.Equal(t, "1.2km", FormatDistance(1234))
	assert.Equal(t, "15.0km", FormatDistance(15000))
}

func TestParseLocation(t *testing.T) {
	p, err := ParseLocation("116.397128,39.916527")
	require.NoError(t, err)
	assert.Equal(t, 116.397128, p.Lon())
	assert.Equal(t, 39.916527, p.Lat())

	_, err = ParseLocation("116.397128")
	assert.Error(t, err)

	_, err = ParseLocation("abc,39.9")
	assert.Error(t, err)
}

func TestFormatLocation(t *testing.T) {
	assert.Equal(t, "116.397128,39.916527", FormatLocation(orb.Point{116.397128, 39.916527}))
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(39.9, 116.4))
	assert.False(t, ValidCoordinate(91, 116.4))
	assert.False(t, ValidCoordinate(39.9, -181))
}
