package reconcile

import (
	"reflect"
	"strings"
	"testing"
)

func TestReconcile_AllVerified(t *testing.T) {
	r := NewReconciler(nil)

	result := r.Reconcile([]string{"dog"}, []string{"dog"})

	if !reflect.DeepEqual(result.Verified, []string{"dog"}) {
		t.Errorf("Expected verified [dog], got %v", result.Verified)
	}
	if len(result.Hallucinated) != 0 {
		t.Errorf("Expected no hallucinations, got %v", result.Hallucinated)
	}
}

func TestReconcile_PartialHallucination(t *testing.T) {
	r := NewReconciler(nil)

	result := r.Reconcile([]string{"dog", "cat"}, []string{"dog"})

	if !reflect.DeepEqual(result.Verified, []string{"dog"}) {
		t.Errorf("Expected verified [dog], got %v", result.Verified)
	}
	if !reflect.DeepEqual(result.Hallucinated, []string{"cat"}) {
		t.Errorf("Expected hallucinated [cat], got %v", result.Hallucinated)
	}
}

func TestReconcile_EmptyNounSet(t *testing.T) {
	r := NewReconciler(nil)

	result := r.Reconcile(nil, []string{"dog", "person", "bench"})

	if len(result.Verified) != 0 || len(result.Hallucinated) != 0 {
		t.Errorf("Expected empty result for empty noun set, got %+v", result)
	}
}

func TestReconcile_ExactMatchOnly(t *testing.T) {
	r := NewReconciler(nil)

	// No synonym matching: "puppy" does not reconcile against "dog"
	result := r.Reconcile([]string{"puppy"}, []string{"dog"})

	if len(result.Verified) != 0 {
		t.Errorf("Expected no verified nouns, got %v", result.Verified)
	}
	if !reflect.DeepEqual(result.Hallucinated, []string{"puppy"}) {
		t.Errorf("Expected hallucinated [puppy], got %v", result.Hallucinated)
	}
}

func TestReconcile_Partition(t *testing.T) {
	r := NewReconciler(nil)

	nouns := []string{"dog", "cat", "bench", "kite"}
	labels := []string{"dog", "bench", "person"}
	result := r.Reconcile(nouns, labels)

	// verified ∪ hallucinated = nouns, verified ∩ hallucinated = ∅
	combined := make(map[string]int)
	for _, n := range result.Verified {
		combined[n]++
	}
	for _, n := range result.Hallucinated {
		combined[n]++
	}
	if len(combined) != len(nouns) {
		t.Errorf("Partition does not cover noun set: %+v", result)
	}
	for n, count := range combined {
		if count != 1 {
			t.Errorf("Noun %q appears %d times across partitions", n, count)
		}
	}

	// verified ⊆ labels
	labelSet := make(map[string]bool)
	for _, l := range labels {
		labelSet[l] = true
	}
	for _, v := range result.Verified {
		if !labelSet[v] {
			t.Errorf("Verified noun %q not in detection set", v)
		}
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	r := NewReconciler(nil)

	nouns := []string{"dog", "cat", "frisbee"}
	labels := []string{"dog", "frisbee"}

	first := r.Reconcile(nouns, labels)
	for i := 0; i < 10; i++ {
		if got := r.Reconcile(nouns, labels); !reflect.DeepEqual(got, first) {
			t.Fatalf("Reconcile not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestReconcile_NormalizesInputs(t *testing.T) {
	r := NewReconciler(nil)

	result := r.Reconcile([]string{" Dog ", "DOG", "Cat"}, []string{"dog "})

	if !reflect.DeepEqual(result.Verified, []string{"dog"}) {
		t.Errorf("Expected verified [dog], got %v", result.Verified)
	}
	if !reflect.DeepEqual(result.Hallucinated, []string{"cat"}) {
		t.Errorf("Expected hallucinated [cat], got %v", result.Hallucinated)
	}
}

func TestReconcile_CustomNormalizer(t *testing.T) {
	// A stricter strategy can be plugged in without touching the set logic.
	// This one strips a trailing plural "s".
	singular := func(tok string) string {
		tok = DefaultNormalizer(tok)
		return strings.TrimSuffix(tok, "s")
	}
	r := NewReconciler(singular)

	result := r.Reconcile([]string{"dogs"}, []string{"dog"})

	if !reflect.DeepEqual(result.Verified, []string{"dog"}) {
		t.Errorf("Expected verified [dog], got %v", result.Verified)
	}
}
