// Package reconcile compares caption nouns against detector labels.
//
// Matching is exact string equality on normalized tokens. There is no
// synonym or hypernym matching: "puppy" and "dog" are distinct tokens and
// will not reconcile. That looseness is a documented policy, and the
// Normalizer hook exists so a stricter or fuzzier strategy can be plugged in
// without touching the set logic.
package reconcile

import "strings"

// Normalizer maps a token to its canonical comparison form.
type Normalizer func(string) string

// DefaultNormalizer lowercases and trims. It is the policy used when no
// custom strategy is supplied.
func DefaultNormalizer(token string) string {
	return strings.ToLower(strings.TrimSpace(token))
}

// Result partitions the noun set by detector confirmation.
type Result struct {
	// Verified are nouns present in the detection set (intersection)
	Verified []string

	// Hallucinated are nouns absent from the detection set (difference)
	Hallucinated []string
}

// Reconciler is a pure set comparator. It performs no I/O and is
// deterministic for a given pair of inputs.
type Reconciler struct {
	normalize Normalizer
}

// NewReconciler creates a reconciler with the given normalization strategy.
// Passing nil selects DefaultNormalizer.
func NewReconciler(n Normalizer) *Reconciler {
	if n == nil {
		n = DefaultNormalizer
	}
	return &Reconciler{normalize: n}
}

// Reconcile partitions nouns into verified (present among labels) and
// hallucinated (absent). Output order follows the noun input order, with
// duplicates after normalization collapsed. An empty noun set yields an
// empty result regardless of labels.
func (r *Reconciler) Reconcile(nouns, labels []string) Result {
	detected := make(map[string]bool, len(labels))
	for _, label := range labels {
		detected[r.normalize(label)] = true
	}

	result := Result{
		Verified:     []string{},
		Hallucinated: []string{},
	}

	seen := make(map[string]bool, len(nouns))
	for _, noun := range nouns {
		tok := r.normalize(noun)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		if detected[tok] {
			result.Verified = append(result.Verified, tok)
		} else {
			result.Hallucinated = append(result.Hallucinated, tok)
		}
	}

	return result
}
