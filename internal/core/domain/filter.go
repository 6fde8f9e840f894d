package domain

import (
	"strconv"
	"strings"
	"time"
)

// WireTimeLayout renders timestamps the way the search qualifier grammar
// expects them: UTC, millisecond precision, literal Z suffix.
const WireTimeLayout = "2006-01-02T15:04:05.000Z"

// IntRange bounds an integer dimension of a filter.
// A nil bound leaves that side of the range open.
type IntRange struct {
	Min *int
	Max *int
}

// AtLeast returns a range bounded only from below.
func AtLeast(min int) IntRange { return IntRange{Min: &min} }

// AtMost returns a range bounded only from above.
func AtMost(max int) IntRange { return IntRange{Max: &max} }

// Between returns a range bounded on both sides.
func Between(min, max int) IntRange { return IntRange{Min: &min, Max: &max} }

// IsZero reports whether both bounds are open.
func (r IntRange) IsZero() bool { return r.Min == nil && r.Max == nil }

// TimeRange bounds a time dimension of a filter.
// A nil bound leaves that side of the range open.
type TimeRange struct {
	Min *time.Time
	Max *time.Time
}

// Since returns a range bounded only from below.
func Since(min time.Time) TimeRange { return TimeRange{Min: &min} }

// Until returns a range bounded only from above.
func Until(max time.Time) TimeRange { return TimeRange{Max: &max} }

// During returns a range bounded on both sides.
func During(min, max time.Time) TimeRange { return TimeRange{Min: &min, Max: &max} }

// IsZero reports whether both bounds are open.
func (r TimeRange) IsZero() bool { return r.Min == nil && r.Max == nil }

// Filter describes which repositories a search should match.
// The zero value matches everything.
type Filter struct {
	// Languages matches repositories whose primary language is any of
	// the given values.
	Languages []string

	// Stars bounds the stargazer count.
	Stars IntRange

	// Forks bounds the fork count.
	Forks IntRange

	// Created bounds the repository creation time. Exhaustive retrieval
	// requires both bounds; see CreatedWindow.
	Created TimeRange
}

// Query serializes the filter into the platform's qualifier syntax.
//
// Serialization is deterministic: keywords always appear in the order
// language, stars, forks, created; list values keep their declaration
// order; timestamps are normalised to UTC and rendered at millisecond
// precision with a literal Z suffix. Unset dimensions are omitted, so
// the zero filter serializes to the empty string.
func (f Filter) Query() string {
	var b strings.Builder
	for _, kw := range f.keywords() {
		kw.appendTo(&b)
	}
	return b.String()
}

// WithCreatedWindow returns a copy of the filter whose created range
// covers the half-open window [start, end). The qualifier grammar is
// inclusive at millisecond resolution, so the serialized upper bound is
// end minus one millisecond.
func (f Filter) WithCreatedWindow(start, end time.Time) Filter {
	max := end.Add(-time.Millisecond)
	f.Created = TimeRange{Min: &start, Max: &max}
	return f
}

// CreatedWindow returns the half-open creation window [start, end) that
// partitioning operates on, truncated to the wire format's millisecond
// resolution. It returns ErrCreatedUnbounded when either bound is open
// and ErrCreatedEmpty when the window has no width.
func (f Filter) CreatedWindow() (start, end time.Time, err error) {
	if f.Created.Min == nil || f.Created.Max == nil {
		return time.Time{}, time.Time{}, ErrCreatedUnbounded
	}
	start = f.Created.Min.Truncate(time.Millisecond)
	end = f.Created.Max.Truncate(time.Millisecond)
	if !start.Before(end) {
		return time.Time{}, time.Time{}, ErrCreatedEmpty
	}
	return start, end, nil
}

// keyword is one qualifier of a serialized query. Exactly two shapes
// exist: set keywords and range keywords.
type keyword interface {
	appendTo(b *strings.Builder)
}

// setKeyword emits one name:value token per value.
type setKeyword struct {
	name   string
	values []string
}

func (k setKeyword) appendTo(b *strings.Builder) {
	for _, v := range k.values {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k.name)
		b.WriteByte(':')
		b.WriteString(v)
	}
}

// rangeKeyword emits a single name:min..max token. An open side renders
// as *. Endpoints arrive pre-rendered so the keyword itself carries no
// type information.
type rangeKeyword struct {
	name string
	min  string
	max  string
}

func (k rangeKeyword) appendTo(b *strings.Builder) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(k.name)
	b.WriteByte(':')
	if k.min != "" {
		b.WriteString(k.min)
	} else {
		b.WriteByte('*')
	}
	b.WriteString("..")
	if k.max != "" {
		b.WriteString(k.max)
	} else {
		b.WriteByte('*')
	}
}

// keywords lowers the filter's set dimensions into the fixed serialization
// order. Unset dimensions produce no keyword.
func (f Filter) keywords() []keyword {
	var kws []keyword
	if len(f.Languages) > 0 {
		kws = append(kws, setKeyword{name: "language", values: f.Languages})
	}
	if !f.Stars.IsZero() {
		kws = append(kws, rangeKeyword{name: "stars", min: wireInt(f.Stars.Min), max: wireInt(f.Stars.Max)})
	}
	if !f.Forks.IsZero() {
		kws = append(kws, rangeKeyword{name: "forks", min: wireInt(f.Forks.Min), max: wireInt(f.Forks.Max)})
	}
	if !f.Created.IsZero() {
		kws = append(kws, rangeKeyword{name: "created", min: wireTime(f.Created.Min), max: wireTime(f.Created.Max)})
	}
	return kws
}

func wireInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func wireTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(WireTimeLayout)
}
