package keypoint

import (
	"sort"

	"github.com/pixelfield/mapstitch/geom"
	"github.com/pixelfield/mapstitch/matrix"
)

// Config tunes the offset voting.
type Config struct {
	// WeightSwitch is the number of weight-2 keypoints above which a
	// region pair votes with strong keypoints only.
	WeightSwitch int
	// RegionVotes is the ticket length per region pair.
	RegionVotes int
	// CellSize is the edge length of the cells used to measure the
	// spatial spread of fragment matches.
	CellSize int
	// MinCellRate is the fraction of active cells a fragment match must
	// cover to be accepted.
	MinCellRate float64
}

// DefaultConfig returns the voting parameters used by the frame
// collector.
func DefaultConfig() Config {
	return Config{
		WeightSwitch: 10,
		RegionVotes:  3,
		CellSize:     15,
		MinCellRate:  0.66,
	}
}

// Vote is a candidate offset with its supporting keypoint count.
type Vote struct {
	Offset geom.Offset
	Count  int
}

func offsetLess(a, b geom.Offset) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// top returns the k best offsets by count, largest first. Ties are broken
// on the offset itself so results do not depend on map iteration order.
func top(total map[geom.Offset]int, k int) []Vote {
	votes := make([]Vote, 0, len(total))
	for off, count := range total {
		votes = append(votes, Vote{Offset: off, Count: count})
	}

	sort.Slice(votes, func(i, j int) bool {
		if votes[i].Count != votes[j].Count {
			return votes[i].Count > votes[j].Count
		}
		return offsetLess(votes[i].Offset, votes[j].Offset)
	})

	if len(votes) > k {
		votes = votes[:k]
	}
	return votes
}

func useAllWeights(cfg Config, previous, current *Region) bool {
	return previous.Counts()[maxWeight-1] < cfg.WeightSwitch ||
		current.Counts()[maxWeight-1] <= cfg.WeightSwitch
}

// castVote tallies the coordinate differences of every keypoint pair
// sharing a descriptor across a region pair and returns the region's
// ticket of top offsets.
func castVote(cfg Config, previous, current *Region) []Vote {
	useAll := useAllWeights(cfg, previous, current)

	total := make(map[geom.Offset]int)
	for code, cur := range current.Points() {
		if !useAll && code.Weight() != maxWeight-1 {
			continue
		}
		prev, ok := previous.Points()[code]
		if !ok {
			continue
		}
		for _, pp := range prev {
			for _, cp := range cur {
				total[pp.Sub(cp)]++
			}
		}
	}

	return top(total, cfg.RegionVotes)
}

// Match registers two frames against each other and returns the
// translation from the current frame onto the previous one. A false
// result means no acceptable offset exists; it is a normal outcome, not
// an error.
func Match(cfg Config, previous, current *Grid) (geom.Offset, bool) {
	regions := current.Regions()

	active := 0
	for _, r := range regions {
		if r.Active() {
			active++
		}
	}
	if active < len(regions)/4 {
		return geom.Offset{}, false
	}

	// ranked voting: a ticket's 1st choice earns RegionVotes points, its
	// 2nd one less, and so on
	total := make(map[geom.Offset]int)
	for i, prev := range previous.Regions() {
		rank := cfg.RegionVotes
		for _, v := range castVote(cfg, prev, current.Region(i)) {
			total[v.Offset] += rank
			rank--
		}
	}

	best := top(total, 2)
	switch {
	case len(best) == 0:
		return geom.Offset{}, false
	case len(best) > 1 && best[0].Count < best[1].Count+active/2:
		return geom.Offset{}, false
	}

	return best[0].Offset, true
}

type bucket struct {
	count int
	cells map[int]struct{}
}

// MatchFragments registers two fragments against each other. Candidate
// offsets are scored by matched keypoints with matched cells as the tie
// break; the winner is accepted only if its matches cover at least
// MinCellRate of the cells where the two masks overlap.
func MatchFragments(cfg Config, previous *Region, pmask *matrix.Matrix[uint8],
	current *Region, cmask *matrix.Matrix[uint8]) (Vote, bool) {

	useAll := useAllWeights(cfg, previous, current)
	across := (cmask.Width() + cfg.CellSize - 1) / cfg.CellSize

	buckets := make(map[geom.Offset]*bucket)
	for code, cur := range current.Points() {
		if !useAll && code.Weight() != maxWeight-1 {
			continue
		}
		prev, ok := previous.Points()[code]
		if !ok {
			continue
		}
		for _, pp := range prev {
			for _, cp := range cur {
				off := pp.Sub(cp)
				b := buckets[off]
				if b == nil {
					b = &bucket{cells: make(map[int]struct{})}
					buckets[off] = b
				}
				b.count++
				b.cells[(cp.Y/cfg.CellSize)*across+cp.X/cfg.CellSize] = struct{}{}
			}
		}
	}
	if len(buckets) == 0 {
		return Vote{}, false
	}

	var (
		bestOff geom.Offset
		best    *bucket
	)
	for off, b := range buckets {
		if best == nil {
			bestOff, best = off, b
			continue
		}
		switch {
		case b.count != best.count:
			if b.count > best.count {
				bestOff, best = off, b
			}
		case len(b.cells) != len(best.cells):
			if len(b.cells) > len(best.cells) {
				bestOff, best = off, b
			}
		case offsetLess(off, bestOff):
			bestOff, best = off, b
		}
	}

	active := activeCells(cfg.CellSize, pmask, cmask, bestOff)
	if active == 0 || float64(len(best.cells)) < cfg.MinCellRate*float64(active) {
		return Vote{}, false
	}

	return Vote{Offset: bestOff, Count: best.count}, true
}

// activeCells counts the cells of the current mask holding at least one
// pixel that, translated by off, lands on a nonzero pixel of the previous
// mask.
func activeCells(size int, pmask, cmask *matrix.Matrix[uint8], off geom.Offset) int {
	across := (cmask.Width() + size - 1) / size
	bounds := pmask.Dimensions()

	seen := make(map[int]struct{})
	for y := 0; y < cmask.Height(); y++ {
		for x := 0; x < cmask.Width(); x++ {
			if cmask.At(x, y) == 0 {
				continue
			}
			if q := (geom.Point{X: x, Y: y}).Add(off); !bounds.Contains(q) ||
				pmask.At(q.X, q.Y) == 0 {
				continue
			}
			seen[(y/size)*across+x/size] = struct{}{}
		}
	}

	return len(seen)
}
