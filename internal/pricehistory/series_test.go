package pricehistory

import (
	"testing"
	"time"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func testKey() Key {
	return Key{InstanceType: "c4.2xlarge", Product: "Linux/UNIX", Zone: "us-east-1b"}
}

func TestNewSeriesDedupKeepsFirst(t *testing.T) {
	key := testKey()
	samples := []Sample{
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 0.10, Timestamp: mustTime("2020-01-01T00:00:00Z")},
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 0.99, Timestamp: mustTime("2020-01-01T00:00:00Z")},
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 0.12, Timestamp: mustTime("2020-01-01T01:00:00Z")},
	}

	s, err := NewSeries(key, samples)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	price, err := s.At(mustTime("2020-01-01T00:00:00Z"))
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if price != 0.10 {
		t.Errorf("deduped price = %v, want 0.10 (first seen)", price)
	}
}

func TestSeriesAtForwardFill(t *testing.T) {
	key := testKey()
	samples := []Sample{
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 0.10, Timestamp: mustTime("2020-01-01T00:00:00Z")},
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 0.50, Timestamp: mustTime("2020-01-01T00:30:00Z")},
	}
	s, err := NewSeries(key, samples)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}

	cases := []struct {
		t    time.Time
		want float64
	}{
		{mustTime("2020-01-01T00:00:00Z"), 0.10},
		{mustTime("2020-01-01T00:15:00Z"), 0.10},
		{mustTime("2020-01-01T00:30:00Z"), 0.50},
		{mustTime("2020-01-01T12:00:00Z"), 0.50},
	}
	for _, c := range cases {
		got, err := s.At(c.t)
		if err != nil {
			t.Fatalf("At(%v): %v", c.t, err)
		}
		if got != c.want {
			t.Errorf("At(%v) = %v, want %v", c.t, got, c.want)
		}
	}

	if _, err := s.At(mustTime("2019-12-31T00:00:00Z")); err != ErrBeforeFirst {
		t.Errorf("At before first = %v, want ErrBeforeFirst", err)
	}
}

func TestSeriesStats(t *testing.T) {
	key := testKey()
	samples := []Sample{
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 1.0, Timestamp: mustTime("2020-01-01T00:00:00Z")},
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 2.0, Timestamp: mustTime("2020-01-01T01:00:00Z")},
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 3.0, Timestamp: mustTime("2020-01-01T02:00:00Z")},
	}
	s, err := NewSeries(key, samples)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	if s.Mean() != 2.0 {
		t.Errorf("Mean() = %v, want 2.0", s.Mean())
	}
	if s.Median() != 2.0 {
		t.Errorf("Median() = %v, want 2.0", s.Median())
	}
}

func TestSeriesStride(t *testing.T) {
	key := testKey()
	samples := []Sample{
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 1.0, Timestamp: mustTime("2020-01-01T00:00:00Z")},
		{InstanceType: key.InstanceType, Product: key.Product, Zone: key.Zone, Price: 2.0, Timestamp: mustTime("2020-01-01T01:00:00Z")},
	}
	s, err := NewSeries(key, samples)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}

	points := s.Stride(20 * time.Minute)
	if len(points) != 4 {
		t.Fatalf("Stride len = %d, want 4", len(points))
	}
	if points[0].Price != 1.0 || points[3].Price != 2.0 {
		t.Errorf("unexpected stride prices: %+v", points)
	}
}

func TestKeyRegionStripsAZLetter(t *testing.T) {
	k := Key{Zone: "us-west-2c"}
	if got := k.Region(); got != "us-west-2" {
		t.Errorf("Region() = %q, want us-west-2", got)
	}
}
