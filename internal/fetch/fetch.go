// Package fetch populates the price archive from AWS's live spot
// price history. It is a thin, opt-in stub: the core model never
// calls AWS directly, and a fetcher unable to reach AWS (missing
// credentials, no network) degrades to IsAvailable()==false rather
// than failing the caller.
package fetch

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/ndrandal/spot-sim/internal/pricehistory"
)

// Fetcher pulls spot price history from the AWS EC2 API and appends
// it to a local archive.
type Fetcher struct {
	client    *ec2.Client
	region    string
	available bool
	logger    *log.Logger
}

// New creates a Fetcher bound to region. Credential or connectivity
// failures are captured in IsAvailable rather than returned as an
// error: the caller decides whether a live fetch is optional.
func New(ctx context.Context, region string, logger *log.Logger) *Fetcher {
	if logger == nil {
		logger = log.New(os.Stderr, "fetch: ", log.LstdFlags)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logger.Printf("AWS config unavailable, fetcher disabled: %v", err)
		return &Fetcher{region: region, available: false, logger: logger}
	}

	client := ec2.NewFromConfig(cfg)

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = client.DescribeSpotPriceHistory(probeCtx, &ec2.DescribeSpotPriceHistoryInput{
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		logger.Printf("AWS credentials check failed, fetcher disabled: %v", err)
		return &Fetcher{client: client, region: region, available: false, logger: logger}
	}

	return &Fetcher{client: client, region: region, available: true, logger: logger}
}

// IsAvailable reports whether the fetcher has working AWS credentials.
func (f *Fetcher) IsAvailable() bool {
	return f.available
}

// FetchAndArchive pulls spot price history for instanceType/product
// over the last lookback period and appends every sample to the
// archive under the given period label.
func (f *Fetcher) FetchAndArchive(ctx context.Context, archive *pricehistory.Archive, instanceType, product, period string, lookback time.Duration) (int, error) {
	if !f.available {
		return 0, fmt.Errorf("fetch: fetcher is unavailable (no AWS credentials)")
	}

	endTime := time.Now()
	startTime := endTime.Add(-lookback)

	input := &ec2.DescribeSpotPriceHistoryInput{
		InstanceTypes:       []types.InstanceType{types.InstanceType(instanceType)},
		ProductDescriptions: []string{product},
		StartTime:           aws.Time(startTime),
		EndTime:             aws.Time(endTime),
		MaxResults:          aws.Int32(1000),
	}

	var samples []pricehistory.Sample
	paginator := ec2.NewDescribeSpotPriceHistoryPaginator(f.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("fetch: paginating spot price history: %w", err)
		}
		for _, sp := range page.SpotPriceHistory {
			price, err := parsePrice(aws.ToString(sp.SpotPrice))
			if err != nil {
				f.logger.Printf("skipping unparsable price %q: %v", aws.ToString(sp.SpotPrice), err)
				continue
			}
			samples = append(samples, pricehistory.Sample{
				InstanceType: string(sp.InstanceType),
				Product:      string(sp.ProductDescription),
				Region:       f.region,
				Zone:         aws.ToString(sp.AvailabilityZone),
				Price:        price,
				Timestamp:    aws.ToTime(sp.Timestamp),
			})
		}
	}

	if len(samples) == 0 {
		return 0, nil
	}
	if err := archive.Append(period, samples); err != nil {
		return 0, fmt.Errorf("fetch: archiving samples: %w", err)
	}
	return len(samples), nil
}

func parsePrice(s string) (float64, error) {
	var price float64
	_, err := fmt.Sscanf(s, "%f", &price)
	if err != nil {
		return 0, err
	}
	return price, nil
}
