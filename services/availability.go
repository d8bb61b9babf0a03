package services

import (
	"time"

	"github.com/kendall-kelly/canteen-store-api/models"
)

// Availability is the outcome of evaluating the store hours at a point in time
type Availability struct {
	IsOpen       bool    `json:"is_open"`
	Message      string  `json:"message"`
	NextOpenTime *string `json:"next_open_time"`
}

// EvaluateAvailability decides whether the store accepts orders at now. It depends only
// on its arguments; now is read as wall-clock time in its own location.
func EvaluateAvailability(now time.Time, s models.StoreSettings) Availability {
	switch s.ForceStatus {
	case models.ForceClosed:
		return Availability{IsOpen: false, Message: s.ClosedMessage}
	case models.ForceOpen:
		return Availability{IsOpen: true}
	}

	openMinutes := s.OpenTime.Minutes()
	closeMinutes := s.CloseTime.Minutes()
	currentMinutes := now.Hour()*60 + now.Minute()

	var open bool
	if closeMinutes < openMinutes {
		// overnight window, e.g. 22:00-06:00
		open = currentMinutes >= openMinutes || currentMinutes < closeMinutes
	} else {
		open = currentMinutes >= openMinutes && currentMinutes < closeMinutes
	}

	if open {
		return Availability{IsOpen: true}
	}

	opensAt := s.OpenTime.Format12h()
	return Availability{
		IsOpen:       false,
		Message:      s.ClosedMessage + " Opens at " + opensAt,
		NextOpenTime: &opensAt,
	}
}
