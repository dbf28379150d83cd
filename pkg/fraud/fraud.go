// Package fraud scores a transaction against its nearest historical
// neighbors. Four independent checks each contribute a fixed weight when
// their condition holds; the sum is clamped to 1.0.
package fraud

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cardinalpay/sift/pkg/transaction"
	"github.com/cardinalpay/sift/pkg/vector"
)

// ErrInsufficientHistory is returned when the neighbor set is empty. The
// amount check averages over neighbors, so an empty set has no defined
// score.
var ErrInsufficientHistory = errors.New("insufficient transaction history")

// Fixed heuristic weights. These are policy constants, not learned values.
const (
	WeightAmount        = 0.3
	WeightDevice        = 0.2
	WeightLocation      = 0.3
	WeightPaymentMethod = 0.2
)

// Risk level thresholds on the clamped score.
const (
	HighThreshold   = 0.7
	MediumThreshold = 0.4
)

// AmountDetail explains a triggered amount-deviation check.
type AmountDetail struct {
	Current    float64 `json:"current"`
	Typical    float64 `json:"typical"`
	Difference string  `json:"difference"`
}

// NoveltyDetail explains a triggered novelty check: the query value and the
// distinct values seen among neighbors.
type NoveltyDetail struct {
	Current string   `json:"current"`
	Typical []string `json:"typical"`
}

// Explanation maps each triggered check to its detail. Untriggered checks
// are omitted from the JSON encoding.
type Explanation struct {
	Amount        *AmountDetail  `json:"amount,omitempty"`
	Device        *NoveltyDetail `json:"device,omitempty"`
	Location      *NoveltyDetail `json:"location,omitempty"`
	PaymentMethod *NoveltyDetail `json:"paymentMethod,omitempty"`
}

// Empty reports whether no check triggered.
func (e Explanation) Empty() bool {
	return e.Amount == nil && e.Device == nil && e.Location == nil && e.PaymentMethod == nil
}

// Analysis is the result of scoring one transaction.
type Analysis struct {
	Score       float64
	Explanation *Explanation
}

// Options controls optional parts of the analysis.
type Options struct {
	// Explain computes per-check explanation details alongside the score.
	Explain bool
}

// Analyze scores txn against its neighbor set. Every neighbor payload must
// carry the scored fields; a malformed payload fails the whole computation.
func Analyze(txn transaction.Transaction, neighbors []vector.Neighbor, opts Options) (*Analysis, error) {
	if len(neighbors) == 0 {
		return nil, ErrInsufficientHistory
	}

	past := make([]transaction.Transaction, 0, len(neighbors))
	for _, n := range neighbors {
		t, err := transaction.FromPayload(n.Payload)
		if err != nil {
			return nil, fmt.Errorf("neighbor %d: %w", n.ID, err)
		}
		past = append(past, t)
	}

	var (
		score       float64
		explanation Explanation
	)

	// Amount deviation: strictly more than twice the neighbor mean.
	var total float64
	for _, p := range past {
		total += p.Amount
	}
	mean := total / float64(len(past))
	if txn.Amount > 2*mean {
		score += WeightAmount
		if opts.Explain {
			explanation.Amount = &AmountDetail{
				Current:    txn.Amount,
				Typical:    mean,
				Difference: formatDifference(txn.Amount, mean),
			}
		}
	}

	// Device novelty.
	devices := distinct(past, func(t transaction.Transaction) string { return t.DeviceType })
	if !contains(devices, txn.DeviceType) {
		score += WeightDevice
		if opts.Explain {
			explanation.Device = &NoveltyDetail{Current: txn.DeviceType, Typical: devices}
		}
	}

	// Location novelty on the "city, state" pair.
	locations := distinct(past, transaction.Transaction.CityState)
	if !contains(locations, txn.CityState()) {
		score += WeightLocation
		if opts.Explain {
			explanation.Location = &NoveltyDetail{Current: txn.CityState(), Typical: locations}
		}
	}

	// Payment-method novelty.
	methods := distinct(past, func(t transaction.Transaction) string { return t.PaymentMethod })
	if !contains(methods, txn.PaymentMethod) {
		score += WeightPaymentMethod
		if opts.Explain {
			explanation.PaymentMethod = &NoveltyDetail{Current: txn.PaymentMethod, Typical: methods}
		}
	}

	if score > 1.0 {
		score = 1.0
	}

	analysis := &Analysis{Score: score}
	if opts.Explain {
		analysis.Explanation = &explanation
	}
	return analysis, nil
}

// Score is the bare-score form of Analyze.
func Score(txn transaction.Transaction, neighbors []vector.Neighbor) (float64, error) {
	analysis, err := Analyze(txn, neighbors, Options{})
	if err != nil {
		return 0, err
	}
	return analysis.Score, nil
}

// Level buckets a score into a risk label.
func Level(score float64) string {
	switch {
	case score > HighThreshold:
		return "High"
	case score > MediumThreshold:
		return "Medium"
	default:
		return "Low"
	}
}

// formatDifference renders how far current sits above typical as a
// percentage, one decimal place with a trailing ".0" trimmed.
func formatDifference(current, typical float64) string {
	pct := (current - typical) / typical * 100
	s := fmt.Sprintf("%.1f", pct)
	s = strings.TrimSuffix(s, ".0")
	return s + "% higher"
}

// distinct collects the unique field values across transactions, sorted so
// explanations are stable regardless of neighbor ordering.
func distinct(txns []transaction.Transaction, field func(transaction.Transaction) string) []string {
	seen := make(map[string]struct{}, len(txns))
	out := make([]string, 0, len(txns))
	for _, t := range txns {
		v := field(t)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
