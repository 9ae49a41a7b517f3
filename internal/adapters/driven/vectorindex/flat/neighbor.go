package flat

// neighbor is a candidate collected during a search.
type neighbor struct {
	ordinal  int
	distance float32
}

// neighbors implements heap.Interface as a max-heap: the root is the worst
// candidate, farthest first and then highest ordinal.
type neighbors []neighbor

func (h neighbors) Len() int { return len(h) }
func (h neighbors) Less(i, j int) bool {
	if h[i].distance != h[j].distance {
		return h[i].distance > h[j].distance
	}
	return h[i].ordinal > h[j].ordinal
}
func (h neighbors) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *neighbors) Push(x any) {
	*h = append(*h, x.(neighbor))
}

func (h *neighbors) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// worse reports whether a ranks after b.
func worse(a, b neighbor) bool {
	if a.distance != b.distance {
		return a.distance > b.distance
	}
	return a.ordinal > b.ordinal
}
