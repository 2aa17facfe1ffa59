// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reliability

import (
	"errors"
	"fmt"
	"sort"
)

// Kappa returns Cohen's kappa for two parallel label sequences. Chance
// agreement is computed from the marginals over the union of labels seen in
// either sequence. When both sequences hold one identical constant label the
// classical formula is 0/0; that case returns 1.
func Kappa(a, b []string) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("label sequences differ in length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("no labels to compare")
	}

	n := len(a)
	countA := make(map[string]int)
	countB := make(map[string]int)
	agree := 0
	for i := range a {
		countA[a[i]]++
		countB[b[i]]++
		if a[i] == b[i] {
			agree++
		}
	}

	var products int
	for _, label := range Labels(a, b) {
		products += countA[label] * countB[label]
	}

	po := float64(agree) / float64(n)
	pe := float64(products) / float64(n*n)
	if pe == 1 {
		return 1, nil
	}
	return (po - pe) / (1 - pe), nil
}

// PercentAgreement returns the share of identical pairs as a percentage.
func PercentAgreement(a, b []string) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("label sequences differ in length: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, errors.New("no labels to compare")
	}
	agree := 0
	for i := range a {
		if a[i] == b[i] {
			agree++
		}
	}
	return float64(agree) / float64(len(a)) * 100, nil
}

// Labels returns the sorted union of labels in a and b.
func Labels(a, b []string) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, seq := range [][]string{a, b} {
		for _, l := range seq {
			if !seen[l] {
				seen[l] = true
				labels = append(labels, l)
			}
		}
	}
	sort.Strings(labels)
	return labels
}

// Landis & Koch bands; each band includes its lower bound.
const (
	Poor          = "Poor"
	Slight        = "Slight"
	Fair          = "Fair"
	Moderate      = "Moderate"
	Substantial   = "Substantial"
	AlmostPerfect = "Almost Perfect"
)

// Interpret maps kappa to its Landis & Koch label.
func Interpret(kappa float64) string {
	switch {
	case kappa < 0:
		return Poor
	case kappa < 0.20:
		return Slight
	case kappa < 0.40:
		return Fair
	case kappa < 0.60:
		return Moderate
	case kappa < 0.80:
		return Substantial
	default:
		return AlmostPerfect
	}
}
