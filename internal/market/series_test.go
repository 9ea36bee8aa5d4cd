package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barAt(hour int, close float64) Bar {
	return Bar{
		Time:  time.Date(2024, 1, 2, hour, 0, 0, 0, time.UTC),
		Open:  close - 0.001,
		High:  close + 0.002,
		Low:   close - 0.002,
		Close: close,
	}
}

func TestSeriesAppendAndAccessors(t *testing.T) {
	var s Series
	assert.Equal(t, 0, s.Len())
	_, ok := s.Last()
	assert.False(t, ok)

	s.Append(barAt(10, 1.1))
	s.Append(barAt(11, 1.2))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 1.1, s.At(0).Close)

	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 1.2, last.Close)
	assert.Equal(t, 11, last.Time.Hour())
}

func TestSeriesSort(t *testing.T) {
	var s Series
	s.Append(barAt(12, 1.3))
	s.Append(barAt(10, 1.1))
	s.Append(barAt(11, 1.2))

	s.Sort()

	assert.Equal(t, []float64{1.1, 1.2, 1.3}, s.Close)
	assert.True(t, s.Times[0].Before(s.Times[1]))
	assert.True(t, s.Times[1].Before(s.Times[2]))
}

func TestSeriesValidate(t *testing.T) {
	var s Series
	s.Append(barAt(10, 1.1))
	assert.NoError(t, s.Validate())

	s.Close = append(s.Close, 1.2)
	assert.Error(t, s.Validate())
}

func TestSeriesNilSafe(t *testing.T) {
	var s *Series
	assert.Equal(t, 0, s.Len())
}
