// Package reward implements the accrual engine of the civilization game.
//
// Every reward site (segment owner reward, owner revenue per hosted citizen,
// citizen reward) stores a "last paid" timestamp and is parameterized by a
// period and an amount per period. One period after the last payment a single
// amount becomes claimable; after two full periods a second amount is added
// and accrual stops growing. Unclaimed rewards therefore never exceed two
// periods' worth no matter how long a claim is deferred.
package reward

import "time"

// Accrual is the outcome of evaluating one reward site at a point in time.
type Accrual struct {
	// Claimable is the amount currently claimable: 0, Amount, or 2*Amount
	Claimable int64
	// Available is true once at least one full period has elapsed
	Available bool
	// Maxed is true once two full periods have elapsed and accrual is capped
	Maxed bool
	// NextEligibleAt is when the next single amount becomes claimable
	NextEligibleAt time.Time
}

// Compute evaluates one reward site. lastPaidAt is the stored payment clock,
// period the accrual period, amount the reward per period, and now the
// evaluation instant.
func Compute(lastPaidAt time.Time, period time.Duration, amount int64, now time.Time) Accrual {
	next := lastPaidAt.Add(period)

	acc := Accrual{NextEligibleAt: next}

	if !now.Before(next) {
		acc.Claimable += amount
		acc.Available = true
	}

	if !now.Before(next.Add(period)) {
		acc.Claimable += amount
		acc.Maxed = true
	}

	return acc
}

// Claim evaluates a reward site and, when anything is claimable, resets the
// payment clock to now. The reset applies whenever Available is set,
// regardless of whether the capped second period was collected as well, so
// all three reward sites share one consistent rule. It returns the accrual
// and the new clock value (unchanged when nothing was claimable).
func Claim(lastPaidAt time.Time, period time.Duration, amount int64, now time.Time) (Accrual, time.Time) {
	acc := Compute(lastPaidAt, period, amount, now)
	if acc.Available {
		return acc, now
	}

	return acc, lastPaidAt
}
