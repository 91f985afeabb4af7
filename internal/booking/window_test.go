package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-driveway/internal/datetime"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowNormalize(t *testing.T) {
	t.Parallel()

	t.Run("moves an earlier end day onto the start day", func(t *testing.T) {
		w := Window{FromDate: day(2024, 6, 2), FromTime: "10:00 AM", ToDate: day(2024, 6, 1), ToTime: "11:00 AM"}

		fixed, err := w.Normalize(time.UTC, AdvanceOneHour)
		require.NoError(t, err)
		require.Equal(t, day(2024, 6, 2), fixed.ToDate)
		require.Equal(t, "11:00 AM", fixed.ToTime)

		from, to, err := fixed.Instants(time.UTC)
		require.NoError(t, err)
		require.True(t, to.After(from))
	})

	t.Run("advances an end that is still before the start", func(t *testing.T) {
		w := Window{FromDate: day(2024, 6, 2), FromTime: "10:00 AM", ToDate: day(2024, 6, 1), ToTime: "09:00 AM"}

		fixed, err := w.Normalize(time.UTC, AdvanceOneHour)
		require.NoError(t, err)
		require.Equal(t, day(2024, 6, 2), fixed.ToDate)
		require.Equal(t, "11:00 AM", fixed.ToTime)
	})

	t.Run("clamps onto the start when asked to", func(t *testing.T) {
		w := Window{FromDate: day(2024, 6, 2), FromTime: "10:00 AM", ToDate: day(2024, 6, 2), ToTime: "08:00 AM"}

		fixed, err := w.Normalize(time.UTC, ClampToFrom)
		require.NoError(t, err)
		require.Equal(t, day(2024, 6, 2), fixed.ToDate)
		require.Equal(t, "10:00 AM", fixed.ToTime)
	})

	t.Run("advancing past midnight rolls the end day", func(t *testing.T) {
		w := Window{FromDate: day(2024, 6, 2), FromTime: "11:30 PM", ToDate: day(2024, 6, 2), ToTime: "01:00 AM"}

		fixed, err := w.Normalize(time.UTC, AdvanceOneHour)
		require.NoError(t, err)
		require.Equal(t, day(2024, 6, 3), fixed.ToDate)
		require.Equal(t, "12:30 AM", fixed.ToTime)
	})

	t.Run("leaves a valid window alone", func(t *testing.T) {
		w := Window{FromDate: day(2024, 6, 2), FromTime: "10:00 AM", ToDate: day(2024, 6, 4), ToTime: "09:00 AM"}

		fixed, err := w.Normalize(time.UTC, AdvanceOneHour)
		require.NoError(t, err)
		require.Equal(t, day(2024, 6, 4), fixed.ToDate)
		require.Equal(t, "09:00 AM", fixed.ToTime)
	})

	t.Run("rejects malformed times", func(t *testing.T) {
		w := Window{FromDate: day(2024, 6, 2), FromTime: "10 AM", ToDate: day(2024, 6, 2), ToTime: "11:00 AM"}

		_, err := w.Normalize(time.UTC, AdvanceOneHour)
		require.ErrorIs(t, err, datetime.ErrMalformed)
	})
}

func TestWindowDurationAndSearchParams(t *testing.T) {
	t.Parallel()

	w := Window{FromDate: day(2024, 6, 1), FromTime: "01:00 AM", ToDate: day(2024, 6, 1), ToTime: "03:30 AM"}

	hours, err := w.Duration(time.UTC)
	require.NoError(t, err)
	require.InDelta(t, 2.5, hours, 1e-9)

	from, to, err := w.SearchParams(time.UTC)
	require.NoError(t, err)
	require.Equal(t, "2024-06-01 01:00:00", from)
	require.Equal(t, "2024-06-01 03:00:00", to)
}

func TestEstimatePrice(t *testing.T) {
	t.Parallel()

	require.Equal(t, 10.0, EstimatePrice(0, 10))
	require.Equal(t, 10.0, EstimatePrice(1, 10))
	require.Equal(t, 20.0, EstimatePrice(1.5, 10))
	require.Equal(t, 30.0, EstimatePrice(3, 10))
}
