package geometry

// VerticalGate is the largest horizontal gap a pair may have to be
// considered by a Vertical clustering pass.
const VerticalGate = 10

// clusterSet is the working set of a clustering pass. Slots keep their index
// for the lifetime of the pass; merging retires the absorbed slot.
type clusterSet struct {
	members []Contour
	active  []bool
	live    int
	merges  int
}

func newClusterSet(contours []Contour) *clusterSet {
	s := &clusterSet{
		members: make([]Contour, len(contours)),
		active:  make([]bool, len(contours)),
		live:    len(contours),
	}
	for i, c := range contours {
		s.members[i] = c
		s.active[i] = true
	}
	return s
}

// closestPair returns the eligible pair with the smallest primary gap. The
// first pair found wins ties.
func (s *clusterSet) closestPair(mode Mode, gate float64) (int, int, float64, bool) {
	bestI, bestJ := -1, -1
	var best float64
	for i := range s.members {
		if !s.active[i] {
			continue
		}
		for j := i + 1; j < len(s.members); j++ {
			if !s.active[j] {
				continue
			}
			gap := Distance(s.members[i], s.members[j], mode)
			if gap.Secondary(mode) > gate {
				continue
			}
			if d := gap.Primary(mode); bestI < 0 || d < best {
				bestI, bestJ, best = i, j, d
			}
		}
	}
	return bestI, bestJ, best, bestI >= 0
}

func (s *clusterSet) merge(i, j int) {
	s.members[i] = Merge(s.members[i], s.members[j])
	s.members[j] = nil
	s.active[j] = false
	s.live--
	s.merges++
}

func (s *clusterSet) contours() []Contour {
	out := make([]Contour, 0, s.live)
	for i, c := range s.members {
		if s.active[i] {
			out = append(out, c)
		}
	}
	return out
}

// AgglomerativeCluster repeatedly merges the closest eligible pair of
// contours while its primary gap is below threshold.
//
// In Vertical mode a pair is eligible when its horizontal gap is at most
// VerticalGate. In Horizontal mode the vertical gap must be at most
// secondaryThreshold. The returned slice preserves the relative order of the
// surviving contours; the input slice is not modified.
//
// Parameters:
//   - contours: The contours to cluster. Nil or a single contour is returned as is.
//   - mode: Which gap is primary. Vertical stacks dots onto strokes.
//   - threshold: Pairs merge only while their primary gap is below it.
//   - secondaryThreshold: The secondary gate in Horizontal mode.
//
// Returns:
//   - []Contour: The merged contours, never more than the input.
func AgglomerativeCluster(contours []Contour, mode Mode, threshold, secondaryThreshold float64) []Contour {
	return cluster(contours, mode, threshold, secondaryThreshold).contours()
}

func cluster(contours []Contour, mode Mode, threshold, secondaryThreshold float64) *clusterSet {
	gate := secondaryThreshold
	if mode == Vertical {
		gate = VerticalGate
	}

	s := newClusterSet(contours)
	for s.live > 1 {
		i, j, d, ok := s.closestPair(mode, gate)
		if !ok || d >= threshold {
			break
		}
		s.merge(i, j)
	}
	return s
}

// Intersects reports whether a and b overlap on the Y axis, touching counts,
// and lie no more than xSlack pixels apart on the X axis.
func Intersects(a, b Rect, xSlack int) bool {
	if a.Right()+xSlack < b.X || b.Right()+xSlack < a.X {
		return false
	}
	return !(a.Bottom() < b.Y || b.Bottom() < a.Y)
}

// MergeIntersecting makes one pass over contours, fusing each unconsumed
// contour with every later or earlier unconsumed contour whose bounding
// rectangle intersects its own. Every contour joins at most one group and the
// output follows the order of each group's first member.
//
// Parameters:
//   - contours: The contours to fuse.
//   - xSlack: Horizontal tolerance in pixels when testing intersection.
//
// Returns:
//   - []Contour: One contour per group.
func MergeIntersecting(contours []Contour, xSlack int) []Contour {
	consumed := make([]bool, len(contours))
	out := make([]Contour, 0, len(contours))

	for i, leader := range contours {
		if consumed[i] {
			continue
		}
		consumed[i] = true

		bounds := leader.Rect()
		group := Merge(leader, nil)
		for j, other := range contours {
			if consumed[j] {
				continue
			}
			if Intersects(bounds, other.Rect(), xSlack) {
				group = Merge(group, other)
				consumed[j] = true
			}
		}
		out = append(out, group)
	}
	return out
}
