package credchain

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"github.com/ironbell/vaultiam/internal/errorutil"
)

// Region finds the AWS region to build clients in: AWS_REGION, then
// AWS_DEFAULT_REGION, then the EC2 instance metadata service. Off EC2 and
// with no environment hints, the IMDS attempt is what fails.
func Region(ctx context.Context) (string, error) {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region, nil
	}
	if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		return region, nil
	}

	out, err := imds.New(imds.Options{}).GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", errorutil.Wrap(err, "failed to read region from instance metadata")
	}
	return out.Region, nil
}
