package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhive/service-rental/internal/domain"
)

func mustPeriod(t *testing.T, checkIn, checkOut string) StayPeriod {
	t.Helper()
	p, err := ParseStayPeriod(checkIn, checkOut)
	require.NoError(t, err)
	return p
}

func TestNewStayPeriod_RejectsNonPositiveLength(t *testing.T) {
	day := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	_, err := NewStayPeriod(day, day)
	require.Error(t, err)
	var validation *domain.ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = NewStayPeriod(day, day.AddDate(0, 0, -1))
	require.Error(t, err)
	assert.ErrorAs(t, err, &validation)
}

func TestNewStayPeriod_NormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	in := time.Date(2024, 1, 10, 14, 30, 0, 0, loc)
	out := time.Date(2024, 1, 12, 9, 15, 0, 0, loc)

	p, err := NewStayPeriod(in, out)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), p.CheckIn())
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), p.CheckOut())
	assert.Equal(t, 2, p.Nights())
}

func TestParseStayPeriod_RejectsMalformedDates(t *testing.T) {
	cases := []struct {
		name     string
		checkIn  string
		checkOut string
	}{
		{"garbage check-in", "not-a-date", "2024-01-12"},
		{"garbage check-out", "2024-01-10", "12/01/2024"},
		{"empty check-in", "", "2024-01-12"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStayPeriod(tc.checkIn, tc.checkOut)
			require.Error(t, err)
			var validation *domain.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestStayPeriod_Overlaps(t *testing.T) {
	base := mustPeriod(t, "2024-01-10", "2024-01-15")

	cases := []struct {
		name     string
		other    StayPeriod
		overlaps bool
	}{
		{"identical", mustPeriod(t, "2024-01-10", "2024-01-15"), true},
		{"starts inside", mustPeriod(t, "2024-01-12", "2024-01-20"), true},
		{"ends inside", mustPeriod(t, "2024-01-05", "2024-01-12"), true},
		{"fully inside", mustPeriod(t, "2024-01-11", "2024-01-13"), true},
		{"fully encloses", mustPeriod(t, "2024-01-01", "2024-01-31"), true},
		{"one shared night", mustPeriod(t, "2024-01-14", "2024-01-16"), true},
		{"same-day turnover after", mustPeriod(t, "2024-01-15", "2024-01-18"), false},
		{"same-day turnover before", mustPeriod(t, "2024-01-05", "2024-01-10"), false},
		{"disjoint after", mustPeriod(t, "2024-02-01", "2024-02-05"), false},
		{"disjoint before", mustPeriod(t, "2024-01-01", "2024-01-05"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlaps, base.Overlaps(tc.other))
			// Overlap is symmetric.
			assert.Equal(t, tc.overlaps, tc.other.Overlaps(base))
		})
	}
}

func TestStayPeriod_Nights(t *testing.T) {
	assert.Equal(t, 1, mustPeriod(t, "2024-01-10", "2024-01-11").Nights())
	assert.Equal(t, 5, mustPeriod(t, "2024-01-10", "2024-01-15").Nights())
	// Across a month boundary.
	assert.Equal(t, 3, mustPeriod(t, "2024-01-30", "2024-02-02").Nights())
}

func TestDateOf_DropsTimeOfDay(t *testing.T) {
	midnight := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, midnight, DateOf(midnight))
	assert.Equal(t, midnight, DateOf(time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)))

	// Zone offsets normalize to the UTC calendar day.
	loc := time.FixedZone("UTC+8", 8*3600)
	assert.Equal(t, midnight, DateOf(time.Date(2024, 1, 15, 7, 0, 0, 0, loc)))
}

func TestStayPeriod_String(t *testing.T) {
	p := mustPeriod(t, "2024-01-10", "2024-01-12")
	assert.Equal(t, "[2024-01-10, 2024-01-12)", p.String())
}
