// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package reliability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKappa(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{
			name: "perfect agreement",
			a:    []string{"include", "exclude", "maybe"},
			b:    []string{"include", "exclude", "maybe"},
			want: 1,
		},
		{
			name: "constant identical labels",
			a:    []string{"include", "include", "include"},
			b:    []string{"include", "include", "include"},
			want: 1,
		},
		{
			name: "swapped labels",
			a:    []string{"include", "exclude"},
			b:    []string{"exclude", "include"},
			want: -1,
		},
		{
			name: "constant different labels",
			a:    []string{"include", "include"},
			b:    []string{"exclude", "exclude"},
			want: 0,
		},
		{
			name: "partial agreement",
			a:    []string{"2", "0", "2", "2", "0", "1"},
			b:    []string{"0", "0", "2", "2", "0", "2"},
			want: 9.0 / 21.0,
		},
		{
			name: "label used by one reviewer only",
			a:    []string{"include", "maybe", "exclude", "include"},
			b:    []string{"include", "include", "exclude", "include"},
			// po = 3/4; pe = (2*3 + 1*1 + 1*0)/16 = 7/16
			want: (0.75 - 7.0/16.0) / (1 - 7.0/16.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Kappa(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestKappaErrors(t *testing.T) {
	_, err := Kappa(nil, nil)
	assert.Error(t, err)

	_, err = Kappa([]string{"a"}, []string{"a", "b"})
	assert.Error(t, err)
}

func TestPercentAgreement(t *testing.T) {
	got, err := PercentAgreement([]string{"a", "b", "c", "d"}, []string{"a", "x", "c", "y"})
	require.NoError(t, err)
	assert.Equal(t, 50.0, got)

	got, err = PercentAgreement([]string{"a"}, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	_, err = PercentAgreement(nil, nil)
	assert.Error(t, err)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		kappa float64
		want  string
	}{
		{-0.5, Poor},
		{-0.0001, Poor},
		{0, Slight},
		{0.19999, Slight},
		{0.20, Fair},
		{0.39, Fair},
		{0.40, Moderate},
		{0.59, Moderate},
		{0.60, Substantial},
		{0.79, Substantial},
		{0.80, AlmostPerfect},
		{1.0, AlmostPerfect},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Interpret(tt.kappa), "kappa %v", tt.kappa)
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{"exclude", "include", "maybe"},
		Labels([]string{"maybe", "include"}, []string{"exclude", "include"}))
}
