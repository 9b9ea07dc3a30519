package feed

import (
	"github.com/okian/fairfeed/internal/domain/model"
	"github.com/okian/fairfeed/pkg/metrics"
)

// interleave re-sequences the score-sorted list so underexposed authors
// get a guaranteed slot every cadence positions. It partitions the input
// into two ordered pools and walks the output positions:
//
//   - at a reserved slot (i mod cadence == slot) emit the next
//     underexposed post if any remain;
//   - otherwise emit the next regular post;
//   - once regular runs out, drain the underexposed pool.
//
// The result has exactly the input length: a permutation, never a
// filter.
func (r *Ranker) interleave(sorted []model.RankedPost) []model.RankedPost {
	under := make([]model.RankedPost, 0, len(sorted))
	regular := make([]model.RankedPost, 0, len(sorted))
	for _, rp := range sorted {
		if r.underexposed(rp) {
			under = append(under, rp)
		} else {
			regular = append(regular, rp)
		}
	}

	out := make([]model.RankedPost, 0, len(sorted))
	ui, ri := 0, 0
	for i := range sorted {
		if i%r.cadence == r.slot && ui < len(under) {
			out = append(out, under[ui])
			ui++
			metrics.RecordInterleaveInjection()
			continue
		}
		if ri < len(regular) {
			out = append(out, regular[ri])
			ri++
			continue
		}
		out = append(out, under[ui])
		ui++
	}

	return out
}
