package services

import "github.com/njeri2090/studio_booking/models"

// PricingSnapshot is the money breakdown frozen into a booking at creation
// time. Later package edits never touch it.
type PricingSnapshot struct {
	PackagePriceCents    int64 `json:"package_price_cents"`
	DepositAmountCents   int64 `json:"deposit_amount_cents"`
	RemainingAmountCents int64 `json:"remaining_amount_cents"`
}

// ComputePricing derives the deposit and remaining amounts from the package
// price and deposit percentage. The deposit is rounded half-up to the minor
// unit and the remainder is whatever is left, so the two parts always sum to
// the package price exactly.
func ComputePricing(pkg models.Package) PricingSnapshot {
	deposit := (pkg.PriceCents*int64(pkg.DepositPercentage) + 50) / 100
	return PricingSnapshot{
		PackagePriceCents:    pkg.PriceCents,
		DepositAmountCents:   deposit,
		RemainingAmountCents: pkg.PriceCents - deposit,
	}
}
