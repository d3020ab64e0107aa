package analysis

import (
	"context"
	"math"
	"math/rand/v2"

	"retail-insights/internal/models"
)

const (
	DefaultClusters      = 3
	DefaultAttempts      = 10
	DefaultMaxIterations = 300
	DefaultSeed          = 42
)

// FeatureCount is the width of a country feature vector:
// revenue, order count, quantity, average order value.
const FeatureCount = 4

type Vector = [FeatureCount]float64

type ClusterOptions struct {
	K             int
	Seed          uint64
	Attempts      int
	MaxIterations int
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.K <= 0 {
		o.K = DefaultClusters
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

type ClusterResult struct {
	Assignments []models.ClusterAssignment
	// K is the number of clusters actually used; it is lower than the
	// requested value when there are fewer countries than clusters.
	K       int
	Inertia float64
}

// Cluster partitions countries by their standardized features with k-means.
// The same aggregates, options and seed always give the same assignments;
// labels are numbered by first appearance in aggs. The context bounds the
// wall-clock time spent iterating.
func Cluster(ctx context.Context, aggs []models.CountryAggregate, opts ClusterOptions) (*ClusterResult, error) {
	opts = opts.withDefaults()

	raw := make([]Vector, len(aggs))
	for i, a := range aggs {
		raw[i] = Vector{
			a.Revenue.InexactFloat64(),
			float64(a.Orders),
			float64(a.Quantity),
			a.AverageOrderValue.InexactFloat64(),
		}
	}
	points := Standardize(raw)

	k := min(opts.K, len(points))
	result := &ClusterResult{Assignments: make([]models.ClusterAssignment, 0, len(points)), K: k}
	if k == 0 {
		return result, nil
	}

	var best []int
	bestInertia := math.Inf(1)
	for attempt := 0; attempt < opts.Attempts; attempt++ {
		rng := rand.New(rand.NewPCG(opts.Seed, uint64(attempt)))
		labels, inertia, err := kmeans(ctx, points, k, opts.MaxIterations, rng)
		if err != nil {
			return nil, err
		}
		if inertia < bestInertia {
			best, bestInertia = labels, inertia
		}
	}

	labels := canonicalLabels(best)
	for i, a := range aggs {
		result.Assignments = append(result.Assignments, models.ClusterAssignment{
			Country:  a.Country,
			Features: points[i],
			Cluster:  labels[i],
		})
	}
	result.Inertia = bestInertia
	return result, nil
}

// Standardize rescales every feature to zero mean and unit population
// variance. A feature with no spread maps to 0 for every point.
func Standardize(raw []Vector) []Vector {
	out := make([]Vector, len(raw))
	n := float64(len(raw))
	if len(raw) == 0 {
		return out
	}

	for f := 0; f < FeatureCount; f++ {
		var sum float64
		for _, v := range raw {
			sum += v[f]
		}
		mean := sum / n

		var sq float64
		for _, v := range raw {
			d := v[f] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)

		if std <= 1e-12*math.Max(1, math.Abs(mean)) {
			continue
		}
		for i, v := range raw {
			out[i][f] = (v[f] - mean) / std
		}
	}
	return out
}

func kmeans(ctx context.Context, points []Vector, k, maxIter int, rng *rand.Rand) ([]int, float64, error) {
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = -1
	}

	for iter := 0; iter < maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		changed := false
		for i, p := range points {
			c := nearest(p, centroids)
			if c != labels[i] {
				labels[i] = c
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([]Vector, k)
		counts := make([]int, k)
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for f := range p {
				sums[c][f] += p[f]
			}
		}
		for c := range centroids {
			// An empty cluster keeps its previous centroid.
			if counts[c] == 0 {
				continue
			}
			for f := range sums[c] {
				centroids[c][f] = sums[c][f] / float64(counts[c])
			}
		}
	}

	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centroids[labels[i]])
	}
	return labels, inertia, nil
}

// seedCentroids picks k starting centroids with k-means++ weighting.
func seedCentroids(points []Vector, k int, rng *rand.Rand) []Vector {
	centroids := make([]Vector, 0, k)
	centroids = append(centroids, points[rng.IntN(len(points))])

	dist := make([]float64, len(points))
	for len(centroids) < k {
		var total float64
		for i, p := range points {
			dist[i] = sqDist(p, centroids[nearest(p, centroids)])
			total += dist[i]
		}
		if total == 0 {
			centroids = append(centroids, points[rng.IntN(len(points))])
			continue
		}

		target := rng.Float64() * total
		pick := len(points) - 1
		for i, d := range dist {
			target -= d
			if target < 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, points[pick])
	}
	return centroids
}

func nearest(p Vector, centroids []Vector) int {
	best, bestDist := 0, math.Inf(1)
	for c, centroid := range centroids {
		if d := sqDist(p, centroid); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func sqDist(a, b Vector) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// canonicalLabels renumbers cluster ids by order of first appearance.
func canonicalLabels(labels []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := mapping[l]
		if !ok {
			id = len(mapping)
			mapping[l] = id
		}
		out[i] = id
	}
	return out
}
