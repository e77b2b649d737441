// Package pricing holds the compile-time-constant per-region rate
// tables the roll-up model needs: EBS block storage, EC2 egress, the
// on-demand head-node rate, and S3 object-store storage/egress/request
// pricing. These are treated as versioned configuration, never as
// runtime-mutable data.
package pricing

import (
	"fmt"
	"strings"
)

// Rates holds every per-region rate the roll-up model consumes.
type Rates struct {
	// BlockStoreGBMonth is general-purpose EBS storage, $/GB-month.
	BlockStoreGBMonth float64
	// Egress is EC2 data-transfer-out, $/GB (first tier).
	Egress float64
	// HeadHourly is the t2.small-equivalent on-demand rate, $/hour.
	HeadHourly float64
	// ObjectStoreGBMonth is S3 standard storage, $/GB-month.
	ObjectStoreGBMonth float64
	// ObjectEgress is S3 data-transfer-out, $/GB.
	ObjectEgress float64
	// ObjectPutPer1k is the S3 PUT request rate, $/1,000 requests.
	ObjectPutPer1k float64
	// ObjectGetPer10k is the S3 GET request rate, $/10,000 requests.
	ObjectGetPer10k float64
}

// ErrUnknownRegion is returned by Lookup for a region with no table entry.
type ErrUnknownRegion struct{ Region string }

func (e ErrUnknownRegion) Error() string {
	return fmt.Sprintf("pricing: unknown region %q", e.Region)
}

var table = map[string]Rates{
	"us-east-1": {
		BlockStoreGBMonth: 0.1, Egress: 0.09, HeadHourly: 0.026,
		ObjectStoreGBMonth: 0.03, ObjectEgress: 0.09, ObjectPutPer1k: 0.005, ObjectGetPer10k: 0.004,
	},
	"us-west-1": {
		BlockStoreGBMonth: 0.12, Egress: 0.09, HeadHourly: 0.034,
		ObjectStoreGBMonth: 0.033, ObjectEgress: 0.09, ObjectPutPer1k: 0.0055, ObjectGetPer10k: 0.0044,
	},
	"us-west-2": {
		BlockStoreGBMonth: 0.1, Egress: 0.09, HeadHourly: 0.026,
		ObjectStoreGBMonth: 0.03, ObjectEgress: 0.09, ObjectPutPer1k: 0.005, ObjectGetPer10k: 0.004,
	},
	"eu-west-1": {
		BlockStoreGBMonth: 0.11, Egress: 0.09, HeadHourly: 0.028,
		ObjectStoreGBMonth: 0.03, ObjectEgress: 0.09, ObjectPutPer1k: 0.005, ObjectGetPer10k: 0.004,
	},
	"eu-central-1": {
		BlockStoreGBMonth: 0.119, Egress: 0.09, HeadHourly: 0.030,
		ObjectStoreGBMonth: 0.0324, ObjectEgress: 0.09, ObjectPutPer1k: 0.0054, ObjectGetPer10k: 0.0043,
	},
	"ap-southeast-1": {
		BlockStoreGBMonth: 0.12, Egress: 0.12, HeadHourly: 0.040,
		ObjectStoreGBMonth: 0.03, ObjectEgress: 0.12, ObjectPutPer1k: 0.005, ObjectGetPer10k: 0.004,
	},
	"ap-southeast-2": {
		BlockStoreGBMonth: 0.12, Egress: 0.14, HeadHourly: 0.040,
		ObjectStoreGBMonth: 0.033, ObjectEgress: 0.14, ObjectPutPer1k: 0.0055, ObjectGetPer10k: 0.0044,
	},
	"ap-northeast-1": {
		BlockStoreGBMonth: 0.12, Egress: 0.14, HeadHourly: 0.040,
		ObjectStoreGBMonth: 0.033, ObjectEgress: 0.14, ObjectPutPer1k: 0.0047, ObjectGetPer10k: 0.0037,
	},
	"sa-east-1": {
		BlockStoreGBMonth: 0.19, Egress: 0.25, HeadHourly: 0.054,
		ObjectStoreGBMonth: 0.0408, ObjectEgress: 0.25, ObjectPutPer1k: 0.007, ObjectGetPer10k: 0.0056,
	},
}

// Lookup resolves the rate table for a zone string (e.g. "us-east-1b"),
// stripping the trailing availability-zone letter to get the region.
func Lookup(zone string) (Rates, error) {
	region := regionOf(zone)
	rates, ok := table[region]
	if !ok {
		return Rates{}, ErrUnknownRegion{Region: region}
	}
	return rates, nil
}

func regionOf(zone string) string {
	zone = strings.TrimSpace(zone)
	if len(zone) == 0 {
		return zone
	}
	return zone[:len(zone)-1]
}
