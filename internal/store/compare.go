package store

import (
	"math"
	"sort"

	"github.com/meridian-ops/voclens/internal/config"
)

// Compare diffs the current snapshot against the prior one. A nil prior
// yields a no-baseline comparison, which is a first-class outcome rather
// than an error: the first run over any cadence has nothing to compare to.
func Compare(current, prior *Snapshot, cfg config.Comparison) Comparison {
	cmp := Comparison{CurrentSnapshotID: current.SnapshotID}

	if prior == nil {
		cmp.NoBaseline = true
		return cmp
	}
	cmp.PriorSnapshotID = prior.SnapshotID

	names := unionTopics(current.TopicVolumes, prior.TopicVolumes)
	for _, name := range names {
		cur := current.TopicVolumes[name]
		prev := prior.TopicVolumes[name]

		d := TopicDelta{
			Topic:         name,
			PriorVolume:   prev,
			CurrentVolume: cur,
			VolumeDelta:   cur - prev,
			PriorPct:      pct(prev, prior.TotalConversations),
			CurrentPct:    pct(cur, current.TotalConversations),
		}
		if prev > 0 {
			rel := float64(cur-prev) / float64(prev)
			d.RelativeChange = &rel
		}
		cmp.Deltas = append(cmp.Deltas, d)

		// A change is significant only when it is both relatively large and
		// large in absolute terms, so low-volume noise never flags.
		if relExceeds(d.RelativeChange, cfg.SignificantRelative) &&
			abs(d.VolumeDelta) >= cfg.SignificantMinDelta {
			cmp.SignificantChanges = append(cmp.SignificantChanges, d)
		}

		if prev < cfg.EmergingFloor && cur >= cfg.EmergingFloor {
			cmp.EmergingTopics = append(cmp.EmergingTopics, name)
		}
		if prev >= cfg.EmergingFloor && cur < cfg.EmergingFloor {
			cmp.DecliningTopics = append(cmp.DecliningTopics, name)
		}
	}

	sort.Slice(cmp.SignificantChanges, func(i, j int) bool {
		a, b := cmp.SignificantChanges[i], cmp.SignificantChanges[j]
		if abs(a.VolumeDelta) != abs(b.VolumeDelta) {
			return abs(a.VolumeDelta) > abs(b.VolumeDelta)
		}
		return a.Topic < b.Topic
	})

	return cmp
}

// unionTopics returns the sorted union of topic names across both snapshots.
func unionTopics(a, b map[string]int) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var names []string
	for name := range a {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range b {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// relExceeds reports whether the relative change clears the threshold. A nil
// change means the topic had no prior volume, which always counts as large.
func relExceeds(rel *float64, threshold float64) bool {
	if rel == nil {
		return true
	}
	return math.Abs(*rel) > threshold
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
