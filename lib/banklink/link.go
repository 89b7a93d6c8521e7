package banklink

import (
	"cageots-konnector/lib/billstore"
	"cageots-konnector/lib/textutil"
	"math"
	"time"

	"github.com/antzucaro/matchr"
)

// Operation is a line of a bank statement.
type Operation struct {
	Id    string    `json:"id"`
	Label string    `json:"label"`
	Date  time.Time `json:"date"`
	// Amount is negative for debits.
	Amount float64 `json:"amount"`
}

type Options struct {
	// DateWindow is how far apart the bill and the operation may be,
	// defaults to 15 days.
	DateWindow time.Duration
	// MinSimilarity is the Jaro-Winkler similarity a label needs to reach
	// when it does not contain an identifier outright, defaults to 0.85.
	MinSimilarity float64
}

func (o Options) withDefaults() Options {
	if o.DateWindow == 0 {
		o.DateWindow = time.Hour * 24 * 15
	}
	if o.MinSimilarity == 0 {
		o.MinSimilarity = 0.85
	}
	return o
}

type Match struct {
	Bill      billstore.Bill
	Operation Operation
	// Similarity is 1 when the label contains one of the bill identifiers.
	Similarity float64
}

func cents(amount float64) int64 {
	return int64(math.Round(math.Abs(amount) * 100))
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// labelSimilarity compares every identifier with every window of the label
// that has the identifier's length and returns the best score.
func labelSimilarity(label string, identifiers []string) float64 {
	if textutil.MatchName(label, identifiers) {
		return 1
	}

	normalizedLabel := []rune(textutil.NormalizeName(label))
	var best float64
	for _, identifier := range identifiers {
		target := []rune(textutil.NormalizeName(identifier))
		if len(target) == 0 {
			continue
		}
		if len(normalizedLabel) <= len(target) {
			sim := matchr.JaroWinkler(string(normalizedLabel), string(target), false)
			best = math.Max(best, sim)
			continue
		}
		for start := 0; start+len(target) <= len(normalizedLabel); start++ {
			window := string(normalizedLabel[start : start+len(target)])
			sim := matchr.JaroWinkler(window, string(target), false)
			best = math.Max(best, sim)
		}
	}
	return best
}

// Link pairs bills with the bank operations that paid for them. Each
// operation is used at most once, bills are considered in the given order and
// take the best scoring operation left, ties going to the closest date.
func Link(bills []billstore.Bill, ops []Operation, opts Options) []Match {
	opts = opts.withDefaults()

	used := make([]bool, len(ops))
	var matches []Match

	for _, bill := range bills {
		bestIdx := -1
		var bestSim float64
		var bestDistance time.Duration

		for i, op := range ops {
			if used[i] {
				continue
			}
			if cents(op.Amount) != cents(bill.Amount) {
				continue
			}
			distance := absDuration(op.Date.Sub(bill.Date))
			if distance > opts.DateWindow {
				continue
			}
			sim := labelSimilarity(op.Label, bill.Identifiers)
			if sim < opts.MinSimilarity {
				continue
			}

			if bestIdx < 0 || sim > bestSim || (sim == bestSim && distance < bestDistance) {
				bestIdx = i
				bestSim = sim
				bestDistance = distance
			}
		}

		if bestIdx < 0 {
			continue
		}
		used[bestIdx] = true
		matches = append(matches, Match{
			Bill:       bill,
			Operation:  ops[bestIdx],
			Similarity: bestSim,
		})
	}

	return matches
}
