// Package s3 implements the artifact client over an S3 bucket, for setups
// that mirror run artifacts into their own storage instead of (or next to)
// the CI platform's artifact service. Objects live under runs/<runID>/<name>.
package s3

import (
	"bytes"
	"context"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"

	"github.com/reportcard-dev/reportcard/internal/artifact"
)

// DefaultRetention matches the platform-side artifact expiry so both
// backends skip stale baselines the same way.
const DefaultRetention = 90 * 24 * time.Hour

// Client is an S3-backed artifact.Client.
type Client struct {
	bucket    string
	runID     int64
	retention time.Duration

	svc      *awss3.S3
	uploader *s3manager.Uploader
}

// NewClient builds the S3 client and verifies the bucket exists up front so
// a misconfigured bucket fails at startup, not mid-pipeline.
func NewClient(bucket, region string, runID int64) (*Client, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, errors.Wrap(err, "creating AWS session")
	}
	svc := awss3.New(sess)
	if _, err := svc.HeadBucket(&awss3.HeadBucketInput{Bucket: aws.String(bucket)}); err != nil {
		return nil, errors.Wrapf(err, "bucket %q is not reachable", bucket)
	}
	return &Client{
		bucket:    bucket,
		runID:     runID,
		retention: DefaultRetention,
		svc:       svc,
		uploader:  s3manager.NewUploader(sess),
	}, nil
}

func objectKey(runID int64, name string) string {
	return path.Join("runs", strconv.FormatInt(runID, 10), name)
}

// Put uploads payload for the current run. The object key doubles as the
// artifact id.
func (c *Client) Put(ctx context.Context, name string, payload []byte) (string, error) {
	key := objectKey(c.runID, name)
	_, err := c.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading s3://%s/%s", c.bucket, key)
	}
	return key, nil
}

// List enumerates the artifacts of a run. Objects older than the retention
// window are reported expired rather than filtered, so the resolver logs the
// skip the same way as with the platform backend.
func (c *Client) List(ctx context.Context, runID int64) ([]artifact.Info, error) {
	prefix := path.Join("runs", strconv.FormatInt(runID, 10)) + "/"
	out, err := c.svc.ListObjectsV2WithContext(ctx, &awss3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing s3://%s/%s", c.bucket, prefix)
	}
	cutoff := time.Now().Add(-c.retention)
	infos := make([]artifact.Info, 0, len(out.Contents))
	for _, obj := range out.Contents {
		infos = append(infos, artifact.Info{
			ID:      aws.StringValue(obj.Key),
			Name:    path.Base(aws.StringValue(obj.Key)),
			Expired: obj.LastModified != nil && obj.LastModified.Before(cutoff),
		})
	}
	return infos, nil
}

// Download fetches one object by its key.
func (c *Client) Download(ctx context.Context, id string) ([]byte, error) {
	out, err := c.svc.GetObjectWithContext(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching s3://%s/%s", c.bucket, id)
	}
	defer out.Body.Close()
	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading s3://%s/%s", c.bucket, id)
	}
	return payload, nil
}
