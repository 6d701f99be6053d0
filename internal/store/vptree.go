package store

import (
	"math/rand"
	"sort"
)

// vpTree is a static vantage point tree over study coordinates. It answers
// exact radius queries: every point whose Euclidean distance to the query
// center is less than or equal to the radius is returned, boundary included.
type vpTree struct {
	root *vpNode
	size int
}

type vpNode struct {
	point     StudyPoint
	threshold float64
	left      *vpNode
	right     *vpNode
}

// newVPTree builds a static tree from points. The input slice is cloned so
// later mutation by the caller cannot corrupt the tree.
func newVPTree(points []StudyPoint) *vpTree {
	clone := make([]StudyPoint, len(points))
	copy(clone, points)
	return &vpTree{
		root: buildVPNode(clone),
		size: len(clone),
	}
}

func buildVPNode(points []StudyPoint) *vpNode {
	if len(points) == 0 {
		return nil
	}

	// Random vantage point avoids degenerate splits on sorted input.
	vpIdx := rand.Intn(len(points))
	points[vpIdx], points[len(points)-1] = points[len(points)-1], points[vpIdx]
	vp := points[len(points)-1]

	subset := points[:len(points)-1]
	if len(subset) == 0 {
		return &vpNode{point: vp}
	}

	type distPoint struct {
		point StudyPoint
		dist  float64
	}
	dists := make([]distPoint, len(subset))
	for i, p := range subset {
		dists[i] = distPoint{p, vp.Point.DistanceTo(p.Point)}
	}

	sort.Slice(dists, func(i, j int) bool {
		return dists[i].dist < dists[j].dist
	})

	// Split at the median distance: left holds points within the threshold
	// ball around the vantage point, right holds the rest.
	medianIdx := len(dists) / 2
	threshold := dists[medianIdx].dist

	leftPoints := make([]StudyPoint, 0, medianIdx+1)
	rightPoints := make([]StudyPoint, 0, len(dists)-(medianIdx+1))
	for i, d := range dists {
		if i <= medianIdx {
			leftPoints = append(leftPoints, d.point)
		} else {
			rightPoints = append(rightPoints, d.point)
		}
	}

	return &vpNode{
		point:     vp,
		threshold: threshold,
		left:      buildVPNode(leftPoints),
		right:     buildVPNode(rightPoints),
	}
}

// search appends every point within radius of center to results and
// returns the extended slice.
func (t *vpTree) search(center Point, radius float64) []StudyPoint {
	var results []StudyPoint
	searchVPNode(t.root, center, radius, &results)
	return results
}

func searchVPNode(node *vpNode, center Point, radius float64, results *[]StudyPoint) {
	if node == nil {
		return
	}

	dist := center.DistanceTo(node.point.Point)
	if dist <= radius {
		*results = append(*results, node.point)
	}

	// Left subtree holds points with d(vp, p) <= threshold, so the closest
	// it can get to the query is dist - threshold. Right subtree holds
	// points with d(vp, p) > threshold, closest dist threshold - dist.
	// Either side is skipped only when that lower bound exceeds the radius.
	if dist-radius <= node.threshold {
		searchVPNode(node.left, center, radius, results)
	}
	if dist+radius >= node.threshold {
		searchVPNode(node.right, center, radius, results)
	}
}
