package fragment

import (
	"sort"
	"sync"

	"github.com/pixelfield/mapstitch/keypoint"
	"github.com/pixelfield/mapstitch/matrix"
	"github.com/pixelfield/mapstitch/palette"
)

// snippet pairs a fragment with the keypoints and coverage mask of its
// consensus image. Splicing matches snippets, not raw fragments.
type snippet struct {
	id       int
	fragment *Fragment
	region   *keypoint.Region
	mask     *matrix.Matrix[uint8]
}

func extractSnippet(id int, f *Fragment) *snippet {
	image, mask := f.Blend()

	// fragments use a single untiled region
	e := keypoint.NewExtractor(image.Dimensions(), 1, 1, 0)
	median := matrix.New[palette.Nat](image.Dimensions())

	// both matrices carry the extractor's own dimensions, so the one
	// error Extract can return is unreachable here
	grid, _ := e.Extract(image, median)

	return &snippet{
		id:       id,
		fragment: f,
		region:   grid.Region(0),
		mask:     mask,
	}
}

// edge is a successful match between two snippets. The vote's offset
// translates the points of b's image onto a's.
type edge struct {
	a, b *snippet
	vote keypoint.Vote
}

// parallel runs fn over 0..n-1 on the given number of workers.
func parallel(n, workers int, fn func(i int)) {
	if workers < 1 {
		workers = 1
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
}

// matchPairs matches target against every other snippet and returns the
// resulting edges.
func matchPairs(cfg keypoint.Config, target *snippet, others []*snippet, workers int) []*edge {
	edges := make([]*edge, len(others))

	parallel(len(others), workers, func(i int) {
		other := others[i]
		a, b := other, target
		if target.id < other.id {
			a, b = target, other
		}
		if vote, ok := keypoint.MatchFragments(cfg,
			a.region, a.mask, b.region, b.mask); ok {
			edges[i] = &edge{a: a, b: b, vote: vote}
		}
	})

	kept := edges[:0]
	for _, e := range edges {
		if e != nil {
			kept = append(kept, e)
		}
	}
	return kept
}

// bestEdge picks the highest-count edge, breaking ties on the snippet
// ids so the merge order is reproducible.
func bestEdge(edges []*edge) *edge {
	var best *edge
	for _, e := range edges {
		if best == nil ||
			e.vote.Count > best.vote.Count ||
			(e.vote.Count == best.vote.Count &&
				(e.a.id < best.a.id ||
					(e.a.id == best.a.id && e.b.id < best.b.id))) {
			best = e
		}
	}
	return best
}

// Splice greedily merges fragments that register against each other and
// returns the survivors. Keypoint extraction and pairwise matching run on
// the given number of workers; the merge loop itself is sequential.
func Splice(cfg keypoint.Config, fragments []*Fragment, workers int) []*Fragment {
	if len(fragments) < 2 {
		return fragments
	}

	snippets := make([]*snippet, len(fragments))
	parallel(len(fragments), workers, func(i int) {
		snippets[i] = extractSnippet(i, fragments[i])
	})
	nextID := len(snippets)

	var edges []*edge
	for i, s := range snippets {
		edges = append(edges, matchPairs(cfg, s, snippets[i+1:], workers)...)
	}

	for len(edges) > 0 {
		e := bestEdge(edges)

		// b's local (0, 0) lands at a's origin translated by the offset
		target := e.a.fragment
		target.Merge(target.Origin().Add(e.vote.Offset), e.b.fragment)
		target.Normalize()

		merged := extractSnippet(nextID, target)
		nextID++

		survivors := snippets[:0]
		for _, s := range snippets {
			if s != e.a && s != e.b {
				survivors = append(survivors, s)
			}
		}
		snippets = survivors

		kept := edges[:0]
		for _, ed := range edges {
			if ed.a != e.a && ed.a != e.b && ed.b != e.a && ed.b != e.b {
				kept = append(kept, ed)
			}
		}
		edges = append(kept, matchPairs(cfg, merged, snippets, workers)...)

		snippets = append([]*snippet{merged}, snippets...)
	}

	sort.Slice(snippets, func(i, j int) bool { return snippets[i].id < snippets[j].id })

	result := make([]*Fragment, len(snippets))
	for i, s := range snippets {
		result[i] = s.fragment
	}
	return result
}
