package booking

import (
	"fmt"

	"github.com/stayhive/service-rental/internal/domain"
)

// PriceCalculator quotes the total price for a stay on a listing.
type PriceCalculator interface {
	// Quote returns the total price in cents for the given period.
	Quote(nightlyPriceCents int64, period StayPeriod) (int64, error)
}

// NightlyPriceCalculator prices a stay as nights times the nightly rate.
type NightlyPriceCalculator struct{}

// NewNightlyPriceCalculator creates a NightlyPriceCalculator.
func NewNightlyPriceCalculator() *NightlyPriceCalculator {
	return &NightlyPriceCalculator{}
}

// Quote computes nights × nightly price in cents.
func (c *NightlyPriceCalculator) Quote(nightlyPriceCents int64, period StayPeriod) (int64, error) {
	if nightlyPriceCents <= 0 {
		return 0, fmt.Errorf("nightly price must be positive, got %d", nightlyPriceCents)
	}
	return nightlyPriceCents * int64(period.Nights()), nil
}

// VerifyExpectedTotal checks a caller-supplied total against the quoted one.
// The total is a snapshot taken at booking time and never recomputed later,
// so a stale quote from the client is rejected rather than silently replaced.
func VerifyExpectedTotal(expectedCents, quotedCents int64) error {
	if expectedCents <= 0 {
		return domain.NewValidationError("total price must be positive")
	}
	if expectedCents != quotedCents {
		return domain.NewValidationError(fmt.Sprintf(
			"total price mismatch: expected %d, quoted %d", expectedCents, quotedCents))
	}
	return nil
}
