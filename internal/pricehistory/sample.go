// Package pricehistory stores and serves per-(region, zone, instance,
// product) spot price time series read from a local CSV archive.
package pricehistory

import (
	"fmt"
	"time"
)

// Sample is one observed spot price at an instant. Immutable once built.
type Sample struct {
	InstanceType string
	Product      string
	Region       string
	Zone         string
	Price        float64
	Timestamp    time.Time
}

// Key identifies one time series: one (instance, product, zone) triple.
type Key struct {
	InstanceType string
	Product      string
	Zone         string
}

// Region returns the key's region: the zone string with its trailing
// availability-letter stripped (e.g. "us-east-1b" -> "us-east-1").
func (k Key) Region() string {
	if len(k.Zone) == 0 {
		return k.Zone
	}
	return k.Zone[:len(k.Zone)-1]
}

// ProductSlug returns the product string with '/' replaced by '-', as
// used in the archive's on-disk directory layout.
func (k Key) ProductSlug() string {
	out := make([]byte, len(k.Product))
	for i := 0; i < len(k.Product); i++ {
		if k.Product[i] == '/' {
			out[i] = '-'
		} else {
			out[i] = k.Product[i]
		}
	}
	return string(out)
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Zone, k.ProductSlug(), k.InstanceType)
}

func (s Sample) key() Key {
	return Key{InstanceType: s.InstanceType, Product: s.Product, Zone: s.Zone}
}
