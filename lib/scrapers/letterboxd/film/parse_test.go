package film

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAbbreviatedCount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"712K", 712_000},
		{"1.5M", 1_500_000},
		{"2B", 2_000_000_000},
		{"183,456", 183_456},
		{"97", 97},
		{" 12k ", 12_000},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := parseAbbreviatedCount(c.in)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}

	_, err := parseAbbreviatedCount("lots")
	require.Error(t, err)
}

func TestParseRuntime(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"132 mins", 132},
		{"132 mins More at IMDb TMDB", 132},
		{"2h 11m", 131},
		{"1h", 60},
		{"90", 90},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := parseRuntime(c.in)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}

	_, err := parseRuntime("unknown")
	require.Error(t, err)
}

func TestParseHistogramTitle(t *testing.T) {
	stars, count, percent, ok := parseHistogramTitle("152,638 ★★★★★ ratings (28%)")
	require.True(t, ok)
	require.Equal(t, 5.0, stars)
	require.EqualValues(t, 152_638, count)
	require.Equal(t, 28, percent)

	stars, count, _, ok = parseHistogramTitle("41 ★½ ratings (1%)")
	require.True(t, ok)
	require.Equal(t, 1.5, stars)
	require.EqualValues(t, 41, count)

	stars, count, percent, ok = parseHistogramTitle("3 ½ ratings")
	require.True(t, ok)
	require.Equal(t, 0.5, stars)
	require.EqualValues(t, 3, count)
	require.Equal(t, 0, percent)

	_, _, _, ok = parseHistogramTitle("No ★★ ratings")
	require.False(t, ok)
}

func TestStarsKey(t *testing.T) {
	require.Equal(t, "stars_5", starsKey(5))
	require.Equal(t, "stars_3.5", starsKey(3.5))
	require.Equal(t, "stars_0.5", starsKey(0.5))
}

func TestParseWeightedAverage(t *testing.T) {
	average, total, ok := parseWeightedAverage("Weighted average of 4.57 based on 1,234,567 ratings")
	require.True(t, ok)
	require.Equal(t, 4.57, average)
	require.EqualValues(t, 1_234_567, total)

	_, _, ok = parseWeightedAverage("Not enough ratings")
	require.False(t, ok)
}

func TestParseExactCount(t *testing.T) {
	n, err := parseExactCount("Watched by 4,137,451 members")
	require.NoError(t, err)
	require.EqualValues(t, 4_137_451, n)

	n, err = parseExactCount("Appears in 123,456 lists")
	require.NoError(t, err)
	require.EqualValues(t, 123_456, n)

	_, err = parseExactCount("Watched by nobody")
	require.Error(t, err)
}
