package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhive/service-rental/internal/domain"
)

func TestNightlyPriceCalculator_Quote(t *testing.T) {
	calc := NewNightlyPriceCalculator()

	total, err := calc.Quote(10000, mustPeriod(t, "2024-01-10", "2024-01-12"))
	require.NoError(t, err)
	assert.Equal(t, int64(20000), total)

	total, err = calc.Quote(12345, mustPeriod(t, "2024-01-10", "2024-01-11"))
	require.NoError(t, err)
	assert.Equal(t, int64(12345), total)
}

func TestNightlyPriceCalculator_RejectsNonPositiveRate(t *testing.T) {
	calc := NewNightlyPriceCalculator()
	period := mustPeriod(t, "2024-01-10", "2024-01-12")

	_, err := calc.Quote(0, period)
	assert.Error(t, err)

	_, err = calc.Quote(-500, period)
	assert.Error(t, err)
}

func TestVerifyExpectedTotal(t *testing.T) {
	require.NoError(t, VerifyExpectedTotal(20000, 20000))

	var validation *domain.ValidationError

	// Non-positive expected totals fail before the quote comparison, so a
	// zero price is reported as invalid rather than as a mismatch.
	err := VerifyExpectedTotal(0, 0)
	require.Error(t, err)
	assert.ErrorAs(t, err, &validation)

	err = VerifyExpectedTotal(-1, 20000)
	require.Error(t, err)
	assert.ErrorAs(t, err, &validation)

	err = VerifyExpectedTotal(19999, 20000)
	require.Error(t, err)
	assert.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "mismatch")
}
