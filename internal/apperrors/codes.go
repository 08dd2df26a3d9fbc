// Package apperrors defines the typed error taxonomy used throughout the
// game-flow engine. Callers never construct ad-hoc error strings where a
// Code exists; add new codes here.
package apperrors

import "fmt"

// Code is a closed set of machine-readable error identifiers. Each value's
// String form is the exact SCREAMING_SNAKE_CASE token a future transport
// layer would surface to clients.
type Code int

const (
	CodeUnknown Code = iota

	// Validation
	CodeInvalidBid
	CodeMustFollowSuit
	CodeCardNotInHand
	CodeOutOfTurn
	CodePhaseMismatch
	CodeInvalidSeat
	CodeInvalidTrumpConversion
	CodeParseCard
	CodeValidationError

	// Authorization
	CodeUnauthorized
	CodeForbidden
	CodeNotAMember

	// Not found
	CodeGameNotFound
	CodePlayerNotFound
	CodeRoundNotFound
	CodeNotFound

	// Conflict
	CodeOptimisticLock
	CodeSeatTaken
	CodeConflict

	// Infra
	CodeDbUnavailable
	CodeDbTimeout
	CodeDbPoolExhausted
	CodeInternalError
	CodeConfigError
)

var codeStrings = map[Code]string{
	CodeUnknown:                "UNKNOWN",
	CodeInvalidBid:             "INVALID_BID",
	CodeMustFollowSuit:         "MUST_FOLLOW_SUIT",
	CodeCardNotInHand:          "CARD_NOT_IN_HAND",
	CodeOutOfTurn:              "OUT_OF_TURN",
	CodePhaseMismatch:          "PHASE_MISMATCH",
	CodeInvalidSeat:            "INVALID_SEAT",
	CodeInvalidTrumpConversion: "INVALID_TRUMP_CONVERSION",
	CodeParseCard:              "PARSE_CARD",
	CodeValidationError:        "VALIDATION_ERROR",
	CodeUnauthorized:           "UNAUTHORIZED",
	CodeForbidden:              "FORBIDDEN",
	CodeNotAMember:             "NOT_A_MEMBER",
	CodeGameNotFound:           "GAME_NOT_FOUND",
	CodePlayerNotFound:         "PLAYER_NOT_FOUND",
	CodeRoundNotFound:          "ROUND_NOT_FOUND",
	CodeNotFound:               "NOT_FOUND",
	CodeOptimisticLock:         "OPTIMISTIC_LOCK",
	CodeSeatTaken:              "SEAT_TAKEN",
	CodeConflict:               "CONFLICT",
	CodeDbUnavailable:          "DB_UNAVAILABLE",
	CodeDbTimeout:              "DB_TIMEOUT",
	CodeDbPoolExhausted:        "DB_POOL_EXHAUSTED",
	CodeInternalError:          "INTERNAL_ERROR",
	CodeConfigError:            "CONFIG_ERROR",
}

func (c Code) String() string {
	if s, ok := codeStrings[c]; ok {
		return s
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// Kind groups codes into the broad taxonomy spec'd error handling design
// uses to decide transport-level status mapping.
type Kind int

const (
	KindValidation Kind = iota
	KindAuthorization
	KindNotFound
	KindConflict
	KindInfra
)

var codeKind = map[Code]Kind{
	CodeInvalidBid:             KindValidation,
	CodeMustFollowSuit:         KindValidation,
	CodeCardNotInHand:          KindValidation,
	CodeOutOfTurn:              KindValidation,
	CodePhaseMismatch:          KindValidation,
	CodeInvalidSeat:            KindValidation,
	CodeInvalidTrumpConversion: KindValidation,
	CodeParseCard:              KindValidation,
	CodeValidationError:        KindValidation,
	CodeUnauthorized:           KindAuthorization,
	CodeForbidden:              KindAuthorization,
	CodeNotAMember:             KindAuthorization,
	CodeGameNotFound:           KindNotFound,
	CodePlayerNotFound:         KindNotFound,
	CodeRoundNotFound:          KindNotFound,
	CodeNotFound:               KindNotFound,
	CodeOptimisticLock:         KindConflict,
	CodeSeatTaken:              KindConflict,
	CodeConflict:               KindConflict,
	CodeDbUnavailable:          KindInfra,
	CodeDbTimeout:              KindInfra,
	CodeDbPoolExhausted:        KindInfra,
	CodeInternalError:          KindInfra,
	CodeConfigError:            KindInfra,
}

// Kind returns the broad taxonomy group for c, defaulting to KindInfra for
// unmapped codes so unexpected errors fail closed rather than open.
func (c Code) Kind() Kind {
	if k, ok := codeKind[c]; ok {
		return k
	}
	return KindInfra
}

// HTTPStatus returns the status code a problem+json transport would use for
// this error code, per spec's error-model status mapping table. Nothing in
// this module actually serves HTTP; this exists so a future transport layer
// has one place to look up the mapping instead of re-deriving it.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthorized:
		return 401
	case CodeForbidden, CodeNotAMember:
		return 403
	case CodeGameNotFound, CodePlayerNotFound, CodeRoundNotFound, CodeNotFound:
		return 404
	case CodeValidationError, CodeInvalidBid, CodeMustFollowSuit, CodeCardNotInHand,
		CodeOutOfTurn, CodePhaseMismatch, CodeInvalidSeat, CodeInvalidTrumpConversion,
		CodeParseCard:
		return 422
	case CodeOptimisticLock, CodeSeatTaken, CodeConflict:
		return 409
	case CodeDbUnavailable, CodeDbTimeout, CodeDbPoolExhausted:
		return 503
	default:
		return 500
	}
}
