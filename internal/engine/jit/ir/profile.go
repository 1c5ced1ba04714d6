package ir

import (
	"fmt"
	"math"
)

// ProfileSource is how trustworthy a branch probability is. Later values are more trusted.
type ProfileSource byte

const (
	// ProfileUnknown means the probability is a guess.
	ProfileUnknown ProfileSource = iota
	// ProfileProfiled means the probability was measured by the interpreter.
	ProfileProfiled
	// ProfileInjected means the probability was asserted by the program itself.
	ProfileInjected
)

// String implements fmt.Stringer.
func (s ProfileSource) String() string {
	switch s {
	case ProfileUnknown:
		return "unknown"
	case ProfileProfiled:
		return "profiled"
	case ProfileInjected:
		return "injected"
	default:
		panic("invalid profile source")
	}
}

// IsInjected returns true for probabilities asserted by the program.
func (s ProfileSource) IsInjected() bool { return s == ProfileInjected }

// IsProfiled returns true for measured probabilities.
func (s ProfileSource) IsProfiled() bool { return s == ProfileProfiled }

// IsTrusted returns true for probabilities that are not a guess.
func (s ProfileSource) IsTrusted() bool { return s != ProfileUnknown }

// Combine returns the source of a probability derived from both s and o:
// the less trusted one.
func (s ProfileSource) Combine(o ProfileSource) ProfileSource {
	return min(s, o)
}

// BranchProbability is the probability of taking the true successor of a split.
type BranchProbability struct {
	P      float64
	Source ProfileSource
}

const (
	neverProbability     = 0.0
	notLikelyProbability = 0.25
	likelyProbability    = 0.75
	alwaysProbability    = 1.0
)

var (
	// NeverTaken marks the true successor as unreachable in practice.
	NeverTaken = BranchProbability{P: neverProbability, Source: ProfileUnknown}
	// AlwaysTaken marks the false successor as unreachable in practice.
	AlwaysTaken = BranchProbability{P: alwaysProbability, Source: ProfileUnknown}
	// NotLikely is the default for checks that rarely pass.
	NotLikely = BranchProbability{P: notLikelyProbability, Source: ProfileUnknown}
	// Likely is the default for checks that usually pass.
	Likely = BranchProbability{P: likelyProbability, Source: ProfileUnknown}
	// Unknown is the uninformed even probability.
	Unknown = BranchProbability{P: 0.5, Source: ProfileUnknown}
)

// Probability returns a BranchProbability with the given source.
func Probability(p float64, source ProfileSource) BranchProbability {
	if p < 0 || p > 1 || math.IsNaN(p) {
		panic(fmt.Sprintf("BUG: invalid branch probability %v", p))
	}
	return BranchProbability{P: p, Source: source}
}

// Negated returns the probability of the false successor.
func (b BranchProbability) Negated() BranchProbability {
	return BranchProbability{P: 1 - b.P, Source: b.Source}
}

// CombineAndWithNegated returns the probability of `b && !o` for independent
// branches, with the less trusted source of the two.
func (b BranchProbability) CombineAndWithNegated(o BranchProbability) BranchProbability {
	return BranchProbability{P: b.P * (1 - o.P), Source: b.Source.Combine(o.Source)}
}

// String implements fmt.Stringer.
func (b BranchProbability) String() string {
	return fmt.Sprintf("%g/%s", b.P, b.Source)
}
