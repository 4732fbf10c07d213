package ledger

import (
	"errors"
	"fmt"

	"github.com/voltlabs/credmarket/internal/amm"
)

// Kind classifies a ledger failure. The transport layer maps kinds to status
// codes; the ledger only signals the kind and a human-readable message.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindInvalidPoolState
	KindNonPositiveOutput
	KindRatioMismatch
	KindInsufficientFunds
	KindInsufficientTokenBalance
	KindInsufficientShares
	KindPoolNotFound
	KindWalletNotFound
	KindHoldingNotFound
	KindPositionNotFound
	KindStoreConflict
)

// Error is the ledger's failure value. Two Errors match under errors.Is when
// their kinds match, so callers branch on the exported sentinels below.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput             = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrInvalidPoolState         = &Error{Kind: KindInvalidPoolState, Message: "invalid pool state"}
	ErrNonPositiveOutput        = &Error{Kind: KindNonPositiveOutput, Message: "non-positive output"}
	ErrRatioMismatch            = &Error{Kind: KindRatioMismatch, Message: "ratio mismatch"}
	ErrInsufficientFunds        = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrInsufficientTokenBalance = &Error{Kind: KindInsufficientTokenBalance, Message: "insufficient token balance"}
	ErrInsufficientShares       = &Error{Kind: KindInsufficientShares, Message: "insufficient shares"}
	ErrPoolNotFound             = &Error{Kind: KindPoolNotFound, Message: "pool not found"}
	ErrWalletNotFound           = &Error{Kind: KindWalletNotFound, Message: "wallet not found"}
	ErrHoldingNotFound          = &Error{Kind: KindHoldingNotFound, Message: "holding not found"}
	ErrPositionNotFound         = &Error{Kind: KindPositionNotFound, Message: "position not found"}
	ErrStoreConflict            = &Error{Kind: KindStoreConflict, Message: "store conflict"}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// mathError translates a math-engine failure into the ledger taxonomy.
func mathError(err error) error {
	switch {
	case errors.Is(err, amm.ErrNonPositiveOutput):
		return newError(KindNonPositiveOutput, "%s", err)
	case errors.Is(err, amm.ErrZeroReserveWithShares):
		return newError(KindInvalidPoolState, "%s", err)
	case errors.Is(err, amm.ErrNoLiquidity):
		return newError(KindInvalidPoolState, "%s", err)
	case errors.Is(err, amm.ErrInvalidInput):
		return newError(KindInvalidInput, "%s", err)
	default:
		return err
	}
}
