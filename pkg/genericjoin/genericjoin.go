// Package genericjoin implements the worst-case-optimal extension step
// shared by every attribute of a motif: given a partial match (a "prefix")
// and a set of extenders that each know how to grow that prefix by one new
// attribute, pick the cheapest extender per prefix, propose its candidates,
// then intersect those candidates against every other extender in turn.
package genericjoin

import (
	"errors"

	"github.com/Sumatoshi-tech/wcoj/pkg/dataflow"
)

// ErrEmptyExtenders is returned by Extend when called with no extenders;
// a degenerate join has no way to grow a prefix.
var ErrEmptyExtenders = errors.New("genericjoin: no extenders supplied")

// Extend grows every prefix in prefixes by one new attribute, using
// extenders. For each prefix it calls Count on every extender, picks the
// extender with the smallest count (ties keep the first seen, matching the
// distilled source's fold), Proposes from that extender, then Intersects
// the proposals against every other extender. The result is the
// concatenation, across all prefixes, of (prefix, newValue) pairs that
// every extender agrees are valid as of time.
func Extend[P any, V any, T any](
	prefixes []P,
	time T,
	extenders []dataflow.StreamPrefixExtender[P, V, T],
	combine func(prefix P, value V) P,
) ([]P, error) {
	if len(extenders) == 0 {
		return nil, ErrEmptyExtenders
	}

	out := make([]P, 0, len(prefixes))

	for _, prefix := range prefixes {
		best := argminCount(prefix, time, extenders)

		candidates := extenders[best].Propose(prefix, time)

		for i, ext := range extenders {
			if i == best || len(candidates) == 0 {
				continue
			}

			candidates = ext.Intersect(prefix, time, candidates)
		}

		for _, v := range candidates {
			out = append(out, combine(prefix, v))
		}
	}

	return out, nil
}

// argminCount returns the index of the extender with the smallest Count for
// prefix at time, breaking ties toward the first (lowest-index) extender.
func argminCount[P any, V any, T any](prefix P, time T, extenders []dataflow.StreamPrefixExtender[P, V, T]) int {
	best := 0
	bestCount := extenders[0].Count(prefix, time)

	for i := 1; i < len(extenders); i++ {
		c := extenders[i].Count(prefix, time)
		if c < bestCount {
			best = i
			bestCount = c
		}
	}

	return best
}
