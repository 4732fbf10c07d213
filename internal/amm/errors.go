package amm

import "errors"

// Math engine failure classes. Callers branch on these with errors.Is; the
// wrapped message carries the offending values.
var (
	// ErrInvalidInput flags a non-positive or otherwise unusable amount or
	// reserve supplied to a math function.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNonPositiveOutput flags a trade whose computed output rounds to
	// zero or below (dust amounts against huge reserves).
	ErrNonPositiveOutput = errors.New("non-positive output")

	// ErrZeroReserveWithShares flags corrupt pool state: shares outstanding
	// while a reserve is zero.
	ErrZeroReserveWithShares = errors.New("zero reserve with outstanding shares")

	// ErrNoLiquidity flags a withdrawal against a pool with no shares issued.
	ErrNoLiquidity = errors.New("no liquidity in pool")
)
