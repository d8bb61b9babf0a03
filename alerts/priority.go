// Package alerts turns change-feed events into the side effects an observer sees:
// audio cues, native notifications and in-app banners.
package alerts

import "github.com/shopspring/decimal"

// Priority ranks a new order by its total
type Priority string

const (
	PriorityStandard Priority = "standard"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
)

var (
	urgentThreshold = decimal.NewFromInt(2000)
	highThreshold   = decimal.NewFromInt(1000)
)

// Classify derives the priority of an order from its total alone
func Classify(amount decimal.Decimal) Priority {
	switch {
	case amount.GreaterThanOrEqual(urgentThreshold):
		return PriorityUrgent
	case amount.GreaterThanOrEqual(highThreshold):
		return PriorityHigh
	default:
		return PriorityStandard
	}
}

// Tones is the cue played for the priority, as frequencies in Hz played in sequence
func (p Priority) Tones() []int {
	switch p {
	case PriorityUrgent:
		return []int{660, 880, 1100}
	case PriorityHigh:
		return []int{880, 880}
	default:
		return []int{880}
	}
}
