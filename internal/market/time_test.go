package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrokerTime(t *testing.T) {
	ts, err := ParseBrokerTime("2021.10.01 18:35", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 10, 1, 18, 35, 0, 0, time.UTC), ts)

	// Trade history exports carry seconds.
	ts, err = ParseBrokerTime("2021.10.01 18:35:42", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 42, ts.Second())

	_, err = ParseBrokerTime("2021-10-01T18:35:00Z", time.UTC)
	assert.Error(t, err)
	_, err = ParseBrokerTime("", time.UTC)
	assert.Error(t, err)
}

func TestParseBrokerTimeConvertsToUTC(t *testing.T) {
	athens, err := time.LoadLocation("Europe/Athens")
	require.NoError(t, err)

	// 2021-10-01 is summer time in Athens, UTC+3.
	ts, err := ParseBrokerTime("2021.10.01 18:35", athens)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.Equal(t, time.Date(2021, 10, 1, 15, 35, 0, 0, time.UTC), ts)
}

func TestParseBrokerTimeNilLocationMeansUTC(t *testing.T) {
	ts, err := ParseBrokerTime("2021.10.01 18:35", nil)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, 10, 1, 18, 35, 0, 0, time.UTC), ts)
}

func TestFormatBrokerTime(t *testing.T) {
	ts := time.Date(2021, 10, 1, 15, 35, 0, 0, time.UTC)
	assert.Equal(t, "2021.10.01 15:35", FormatBrokerTime(ts, time.UTC))

	athens, err := time.LoadLocation("Europe/Athens")
	require.NoError(t, err)
	assert.Equal(t, "2021.10.01 18:35", FormatBrokerTime(ts, athens))
}

func TestFloor(t *testing.T) {
	ts := time.Date(2024, 1, 2, 10, 3, 27, 500, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC), Floor(ts, 5*time.Minute))
	assert.Equal(t, time.Date(2024, 1, 2, 10, 3, 0, 0, time.UTC), Floor(ts, time.Minute))

	aligned := time.Date(2024, 1, 2, 10, 5, 0, 0, time.UTC)
	assert.Equal(t, aligned, Floor(aligned, 5*time.Minute))

	assert.Equal(t, ts, Floor(ts, 0))
}
