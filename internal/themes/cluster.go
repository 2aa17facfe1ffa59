// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package themes

import "math"

// Noise is the DBSCAN label of a point that belongs to no cluster.
const Noise = -1

// CosineDistance returns 1 minus the cosine similarity of a and b, in [0, 2].
// A zero vector is at distance 1 from everything, itself included.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
	return math.Max(0, math.Min(2, d))
}

// DBSCAN labels each point with its cluster number, or Noise. A point's
// neighbourhood is every point within eps cosine distance, itself included;
// a point with at least minPts neighbours is a core point. Clusters are
// numbered from 0 in the order their first core point appears, and a border
// point reachable from two clusters joins the first.
func DBSCAN(points [][]float32, eps float64, minPts int) []int {
	n := len(points)
	neighbours := make([][]int, n)
	core := make([]bool, n)
	for i := range points {
		for j := range points {
			if CosineDistance(points[i], points[j]) <= eps {
				neighbours[i] = append(neighbours[i], j)
			}
		}
		core[i] = len(neighbours[i]) >= minPts
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}

	cluster := 0
	var stack []int
	for i := range points {
		if labels[i] != Noise || !core[i] {
			continue
		}
		p := i
		for {
			if labels[p] == Noise {
				labels[p] = cluster
				if core[p] {
					for _, q := range neighbours[p] {
						if labels[q] == Noise {
							stack = append(stack, q)
						}
					}
				}
			}
			if len(stack) == 0 {
				break
			}
			p = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		}
		cluster++
	}
	return labels
}
