package hexgrid

import "container/heap"

// FindPath runs A* from start to goal with uniform edge cost 1 and the hex
// distance as heuristic. canTraverse decides which hexes may be entered; it
// is never asked about start. The returned path excludes start and includes
// goal. start==goal yields an empty non-nil path. A nil result means goal is
// untraversable or unreachable.
//
// Ties are broken by neighbor order and insertion sequence so equal-length
// paths are stable across runs.
func FindPath(start, goal Hex, canTraverse func(Hex) bool) []Hex {
	if start == goal {
		return []Hex{}
	}
	if canTraverse == nil || !canTraverse(goal) {
		return nil
	}

	open := &nodeHeap{}
	heap.Init(open)

	gScore := map[Hex]int{start: 0}
	cameFrom := map[Hex]Hex{}
	closed := map[Hex]bool{}

	seq := 0
	heap.Push(open, node{h: start, f: Distance(start, goal), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(node)
		if cur.h == goal {
			return reconstruct(cameFrom, start, goal)
		}
		if closed[cur.h] {
			continue
		}
		closed[cur.h] = true

		for _, nb := range Neighbors(cur.h) {
			if closed[nb] {
				continue
			}
			if !canTraverse(nb) {
				continue
			}
			tentative := gScore[cur.h] + 1
			if prev, ok := gScore[nb]; ok && tentative >= prev {
				continue
			}
			gScore[nb] = tentative
			cameFrom[nb] = cur.h
			seq++
			heap.Push(open, node{h: nb, f: tentative + Distance(nb, goal), seq: seq})
		}
	}
	return nil
}

func reconstruct(cameFrom map[Hex]Hex, start, goal Hex) []Hex {
	var rev []Hex
	for at := goal; at != start; at = cameFrom[at] {
		rev = append(rev, at)
	}
	out := make([]Hex, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	return out
}

type node struct {
	h   Hex
	f   int
	seq int
}

type nodeHeap []node

func (n nodeHeap) Len() int { return len(n) }

func (n nodeHeap) Less(i, j int) bool {
	if n[i].f != n[j].f {
		return n[i].f < n[j].f
	}
	return n[i].seq < n[j].seq
}

func (n nodeHeap) Swap(i, j int) { n[i], n[j] = n[j], n[i] }

func (n *nodeHeap) Push(x any) { *n = append(*n, x.(node)) }

func (n *nodeHeap) Pop() any {
	old := *n
	last := old[len(old)-1]
	*n = old[:len(old)-1]
	return last
}
