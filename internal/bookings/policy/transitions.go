package policy

import "tourbook/pkg/model"

var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingPending:   {model.BookingConfirmed, model.BookingCancelled},
	model.BookingConfirmed: {model.BookingCompleted, model.BookingCancelled},
	model.BookingCompleted: nil,
	model.BookingCancelled: nil,
}

// CanTransition reports whether a booking may move from one status to
// another. Staying in the same status is always allowed.
func CanTransition(from, to model.BookingStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(status model.BookingStatus) bool {
	return status == model.BookingCompleted || status == model.BookingCancelled
}

func Cancellable(status model.BookingStatus) bool {
	return status == model.BookingPending || status == model.BookingConfirmed
}
