package domain

import (
	"fmt"
	"sort"
)

// Review statuses reported by the status API.
const (
	StatusApproved  = "approved"
	StatusReviewing = "reviewing"
	StatusRejected  = "rejected"
)

// verdicts maps a review status to the text shown in the chat.
var verdicts = map[string]string{
	StatusApproved:  "Работа проверена: ревьюеру всё понравилось. Ура!",
	StatusReviewing: "Работа взята на проверку ревьюером.",
	StatusRejected:  "Работа проверена: у ревьюера есть замечания.",
}

// Verdict returns the human-readable verdict for status. Unknown statuses
// yield an error wrapping ErrUnknownStatus.
func Verdict(status string) (string, error) {
	v, ok := verdicts[status]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return v, nil
}

// Statuses returns the known status codes in sorted order.
func Statuses() []string {
	out := make([]string, 0, len(verdicts))
	for k := range verdicts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
