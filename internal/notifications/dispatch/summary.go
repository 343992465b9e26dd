package dispatch

import "foodbank-notifier/internal/models"

type Summary struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// Delivered reports whether at least one recipient received the message.
func (s Summary) Delivered() bool {
	return s.SuccessCount > 0
}

func Summarize(results []models.DispatchResult) Summary {
	var s Summary
	for _, r := range results {
		if r.Success {
			s.SuccessCount++
		} else {
			s.FailureCount++
		}
	}
	return s
}

// Unregistered returns the results whose token the gateway no longer accepts.
func Unregistered(results []models.DispatchResult) []models.DispatchResult {
	var out []models.DispatchResult
	for _, r := range results {
		if !r.Success && r.ErrorCode == CodeUnregistered {
			out = append(out, r)
		}
	}
	return out
}
