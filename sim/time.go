package sim

import (
	"fmt"
	"log"
	"math"
)

const (
	posInfTics int64 = math.MaxInt64
	negInfTics int64 = math.MinInt64
)

// A Time is an instant in simulated time. Internally it is a count of tics
// (see TicsPerMS), so a Time that was constructed on the step grid converts
// back to steps exactly, regardless of the floating-point value of the
// resolution.
//
// Time values are immutable. The step representation is cached at
// construction time; after the resolution changes, Calibrate re-derives it.
// Positive and negative infinity are valid sentinel values used for
// never-active and always-active bounds.
type Time struct {
	tics  int64
	steps int64
}

// TimeFromSteps creates a Time that lies on the step grid.
func TimeFromSteps(steps int64) Time {
	return Time{tics: steps * StepTics(), steps: steps}
}

// TimeFromMS creates a Time from a millisecond value, rounded to the nearest
// tic. The result is only on the step grid if the input is a multiple of the
// resolution; callers that require grid alignment must check IsGridTime.
func TimeFromMS(ms float64) Time {
	if math.IsNaN(ms) {
		log.Panic("invalid time")
	}

	if math.IsInf(ms, 1) {
		return PosInfTime()
	}

	if math.IsInf(ms, -1) {
		return NegInfTime()
	}

	tics := int64(math.Round(ms * float64(TicsPerMS)))
	return TimeFromTics(tics)
}

// TimeFromTics creates a Time directly from a tic count.
func TimeFromTics(tics int64) Time {
	t := Time{tics: tics}
	t.steps = t.deriveSteps()
	return t
}

// PosInfTime returns the positive-infinity sentinel.
func PosInfTime() Time {
	return Time{tics: posInfTics, steps: math.MaxInt64}
}

// NegInfTime returns the negative-infinity sentinel.
func NegInfTime() Time {
	return Time{tics: negInfTics, steps: math.MinInt64}
}

// ZeroTime returns the origin of simulated time.
func ZeroTime() Time {
	return Time{}
}

// Tics returns the position of the Time on the tic grid.
func (t Time) Tics() int64 {
	return t.tics
}

// Steps returns the cached step representation. For a Time on the step grid
// this is exact. For off-grid times it is the nearest step, rounding half
// away from zero. The cache is only valid for the resolution that was
// current when the Time was constructed or last calibrated.
func (t Time) Steps() int64 {
	return t.steps
}

// MS returns the time in milliseconds.
func (t Time) MS() float64 {
	if t.IsPosInf() {
		return math.Inf(1)
	}

	if t.IsNegInf() {
		return math.Inf(-1)
	}

	return float64(t.tics) / float64(TicsPerMS)
}

// IsFinite returns false for the two infinity sentinels.
func (t Time) IsFinite() bool {
	return t.tics != posInfTics && t.tics != negInfTics
}

// IsPosInf tells if the Time is the positive-infinity sentinel.
func (t Time) IsPosInf() bool {
	return t.tics == posInfTics
}

// IsNegInf tells if the Time is the negative-infinity sentinel.
func (t Time) IsNegInf() bool {
	return t.tics == negInfTics
}

// IsGridTime tells if the Time is an exact multiple of the resolution.
func (t Time) IsGridTime() bool {
	return t.IsFinite() && t.tics%StepTics() == 0
}

// IsMultipleOf tells if the Time is an exact multiple of another finite,
// non-zero Time.
func (t Time) IsMultipleOf(other Time) bool {
	if !other.IsFinite() || other.tics == 0 {
		log.Panic("IsMultipleOf requires a finite, non-zero divisor")
	}

	return t.IsFinite() && t.tics%other.tics == 0
}

// Calibrate re-derives the step representation from the tic count under the
// current resolution. Model parameters are frequently copied into temporary
// Time values before the authoritative resolution is known; those values
// must be calibrated before their Steps result can be trusted.
func (t Time) Calibrate() Time {
	t.steps = t.deriveSteps()
	return t
}

// Add returns the sum of two Times. Infinities saturate; adding opposite
// infinities is a contract violation.
func (t Time) Add(other Time) Time {
	if !t.IsFinite() || !other.IsFinite() {
		return combineInf(t, other)
	}

	return TimeFromTics(t.tics + other.tics)
}

// Sub returns the difference of two Times, with the same infinity rules as
// Add.
func (t Time) Sub(other Time) Time {
	return t.Add(other.Neg())
}

// Neg returns the negation of the Time. Infinities flip sign.
func (t Time) Neg() Time {
	switch {
	case t.IsPosInf():
		return NegInfTime()
	case t.IsNegInf():
		return PosInfTime()
	default:
		return TimeFromTics(-t.tics)
	}
}

// MulScalar returns the Time scaled by an integer factor. Scaling preserves
// grid alignment.
func (t Time) MulScalar(n int64) Time {
	if !t.IsFinite() {
		if n == 0 {
			log.Panic("cannot multiply an infinite time by zero")
		}
		if n < 0 {
			return t.Neg()
		}
		return t
	}

	return TimeFromTics(t.tics * n)
}

// Before tells if the Time is strictly earlier than another.
func (t Time) Before(other Time) bool {
	return t.tics < other.tics
}

// After tells if the Time is strictly later than another.
func (t Time) After(other Time) bool {
	return t.tics > other.tics
}

// Equals tells if two Times denote the same tic.
func (t Time) Equals(other Time) bool {
	return t.tics == other.tics
}

func (t Time) String() string {
	switch {
	case t.IsPosInf():
		return "+inf"
	case t.IsNegInf():
		return "-inf"
	case t.IsGridTime():
		return fmt.Sprintf("%d steps (%.3f ms)", t.steps, t.MS())
	default:
		return fmt.Sprintf("%.6f ms (off-grid)", t.MS())
	}
}

func (t Time) deriveSteps() int64 {
	if t.IsPosInf() {
		return math.MaxInt64
	}

	if t.IsNegInf() {
		return math.MinInt64
	}

	perStep := StepTics()
	q := t.tics / perStep
	r := t.tics % perStep

	// Round half away from zero so off-grid times land on the nearest step.
	if 2*r >= perStep {
		q++
	} else if 2*r <= -perStep {
		q--
	}

	return q
}

func combineInf(a, b Time) Time {
	if a.IsPosInf() && b.IsNegInf() || a.IsNegInf() && b.IsPosInf() {
		log.Panic("cannot combine opposite infinite times")
	}

	if a.IsPosInf() || b.IsPosInf() {
		return PosInfTime()
	}

	return NegInfTime()
}
