package apperror

import "errors"

var (
	ErrMoveRejected    = errors.New("move rejected")
	ErrGameNotActive   = errors.New("game is not active")
	ErrIndexOutOfRange = errors.New("cell index out of range")
	ErrCellOccupied    = errors.New("cell is already occupied")

	ErrSessionNotFound    = errors.New("session not found")
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageKind = errors.New("unknown message kind")

	ErrConnectionClosed = errors.New("connection is closed")
)

// Wire reasons reported to clients in error messages.
const (
	ReasonGameNotActive      = "GameNotActive"
	ReasonIndexOutOfRange    = "IndexOutOfRange"
	ReasonCellOccupied       = "CellOccupied"
	ReasonSessionNotFound    = "SessionNotFound"
	ReasonMalformedMessage   = "MalformedMessage"
	ReasonUnknownMessageKind = "UnknownMessageKind"
	ReasonInternal           = "InternalError"
)

// Reason - maps an error to the reason string sent to the originating connection.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrGameNotActive):
		return ReasonGameNotActive
	case errors.Is(err, ErrIndexOutOfRange):
		return ReasonIndexOutOfRange
	case errors.Is(err, ErrCellOccupied):
		return ReasonCellOccupied
	case errors.Is(err, ErrSessionNotFound):
		return ReasonSessionNotFound
	case errors.Is(err, ErrMalformedMessage):
		return ReasonMalformedMessage
	case errors.Is(err, ErrUnknownMessageKind):
		return ReasonUnknownMessageKind
	default:
		return ReasonInternal
	}
}

// IsValidation - reports whether err is recovered locally and reported to the sender only.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMoveRejected) ||
		errors.Is(err, ErrMalformedMessage) ||
		errors.Is(err, ErrUnknownMessageKind)
}
