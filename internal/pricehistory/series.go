package pricehistory

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrEmptySeries is returned when a series has no samples.
var ErrEmptySeries = errors.New("pricehistory: series has no samples")

// ErrBeforeFirst is returned by At when the query time precedes the
// series' first observation.
var ErrBeforeFirst = errors.New("pricehistory: time precedes first sample")

// TimePoint is one (timestamp, price) evaluation point.
type TimePoint struct {
	Time  time.Time
	Price float64
}

// Series is an ordered, deduplicated, strictly-increasing-timestamp
// sequence of spot prices for one Key. The zero value is not usable;
// build one with NewSeries.
type Series struct {
	key    Key
	times  []time.Time
	prices []float64
}

// NewSeries builds a Series from unordered samples, sorting ascending
// by timestamp and collapsing duplicate timestamps by keeping the
// first observation seen in the input order (spec's dedup law).
func NewSeries(key Key, samples []Sample) (Series, error) {
	if len(samples) == 0 {
		return Series{}, ErrEmptySeries
	}

	ordered := make([]Sample, len(samples))
	copy(ordered, samples)
	// stable sort: ties keep their relative input order, so "first seen"
	// dedup below is well defined.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	times := make([]time.Time, 0, len(ordered))
	prices := make([]float64, 0, len(ordered))
	for _, s := range ordered {
		if len(times) > 0 && times[len(times)-1].Equal(s.Timestamp) {
			continue
		}
		if s.Price <= 0 {
			continue
		}
		times = append(times, s.Timestamp)
		prices = append(prices, s.Price)
	}

	if len(times) == 0 {
		return Series{}, ErrEmptySeries
	}

	return Series{key: key, times: times, prices: prices}, nil
}

// Key returns the series' (instance, product, zone) identity.
func (s Series) Key() Key { return s.key }

// Len returns the number of stored samples.
func (s Series) Len() int { return len(s.times) }

// First returns the series' earliest timestamp.
func (s Series) First() time.Time { return s.times[0] }

// Last returns the series' latest timestamp.
func (s Series) Last() time.Time { return s.times[len(s.times)-1] }

// searchIndex returns the index of the last stored sample at or before t.
func (s Series) searchIndex(t time.Time) int {
	return sort.Search(len(s.times), func(i int) bool {
		return s.times[i].After(t)
	}) - 1
}

// At returns the forward-filled price at t: the price of the most
// recent sample at or before t.
func (s Series) At(t time.Time) (float64, error) {
	if t.Before(s.times[0]) {
		return 0, ErrBeforeFirst
	}
	idx := s.searchIndex(t)
	return s.prices[idx], nil
}

// Range restricts the series to samples within [lo, hi] inclusive.
func (s Series) Range(lo, hi time.Time) Series {
	start := sort.Search(len(s.times), func(i int) bool {
		return !s.times[i].Before(lo)
	})
	end := sort.Search(len(s.times), func(i int) bool {
		return s.times[i].After(hi)
	})
	if start >= end {
		return Series{key: s.key}
	}
	return Series{
		key:    s.key,
		times:  append([]time.Time(nil), s.times[start:end]...),
		prices: append([]float64(nil), s.prices[start:end]...),
	}
}

// Stride returns forward-filled evaluation points on a fixed cadence,
// starting at the series' first timestamp and stepping by freq until
// the last timestamp is reached.
func (s Series) Stride(freq time.Duration) []TimePoint {
	if freq <= 0 || s.Len() == 0 {
		return nil
	}
	var out []TimePoint
	for t := s.First(); !t.After(s.Last()); t = t.Add(freq) {
		price, err := s.At(t)
		if err != nil {
			continue
		}
		out = append(out, TimePoint{Time: t, Price: price})
	}
	return out
}

// FirstIndexGE returns the smallest stored timestamp >= t, if any.
func (s Series) FirstIndexGE(t time.Time) (time.Time, bool) {
	idx := sort.Search(len(s.times), func(i int) bool {
		return !s.times[i].Before(t)
	})
	if idx == len(s.times) {
		return time.Time{}, false
	}
	return s.times[idx], true
}

// Mean returns the unweighted arithmetic mean of stored prices.
func (s Series) Mean() float64 {
	sum := 0.0
	for _, p := range s.prices {
		sum += p
	}
	return sum / float64(len(s.prices))
}

// Median returns the median of stored prices.
func (s Series) Median() float64 {
	sorted := append([]float64(nil), s.prices...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Stdev returns the population standard deviation of stored prices.
func (s Series) Stdev() float64 {
	mean := s.Mean()
	sumSq := 0.0
	for _, p := range s.prices {
		d := p - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(s.prices)))
}

// RawAfter returns (timestamp, price) pairs for all stored samples
// strictly after t, in order. Used to scan for the first resume point
// once an interrupt has occurred.
func (s Series) RawAfter(t time.Time) []TimePoint {
	idx := sort.Search(len(s.times), func(i int) bool {
		return s.times[i].After(t)
	})
	out := make([]TimePoint, 0, len(s.times)-idx)
	for i := idx; i < len(s.times); i++ {
		out = append(out, TimePoint{Time: s.times[i], Price: s.prices[i]})
	}
	return out
}

// RawFrom returns (timestamp, price) pairs for all stored samples at
// or after t, in order.
func (s Series) RawFrom(t time.Time) []TimePoint {
	idx := sort.Search(len(s.times), func(i int) bool {
		return !s.times[i].Before(t)
	})
	out := make([]TimePoint, 0, len(s.times)-idx)
	for i := idx; i < len(s.times); i++ {
		out = append(out, TimePoint{Time: s.times[i], Price: s.prices[i]})
	}
	return out
}

// Interpolated is a forward-fill view over a Series with an implicit
// sample at every second between its first and last observation. It is
// not materialized: At() does a binary search against the backing
// Series on every call, per spec's "not materialised unless lookup
// density demands it".
type Interpolated struct {
	series Series
}

// NewInterpolated wraps a Series for forward-fill, second-resolution lookup.
func NewInterpolated(s Series) Interpolated {
	return Interpolated{series: s}
}

// At returns the forward-filled price at t.
func (i Interpolated) At(t time.Time) (float64, error) {
	return i.series.At(t)
}
