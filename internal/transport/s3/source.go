// Package s3 lists and downloads ingestion objects from Amazon S3.
package s3

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/kailas-cloud/ragd/internal/domain"
)

// API is the subset of the S3 client used by Source.
type API interface {
	awss3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

// Source reads objects from S3 buckets.
type Source struct {
	api API
}

// NewSource creates an S3 object source.
func NewSource(api API) *Source {
	return &Source{api: api}
}

// Scheme returns the source kind recorded on documents.
func (s *Source) Scheme() string { return domain.SourceS3 }

// List returns every object under prefix, following continuation tokens.
func (s *Source) List(ctx context.Context, bucket, prefix string) ([]domain.ObjectInfo, error) {
	in := &awss3.ListObjectsV2Input{Bucket: aws.String(bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}

	var out []domain.ObjectInfo
	pager := awss3.NewListObjectsV2Paginator(s.api, in)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w: %w", bucket, prefix, domain.ErrObjectSource, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || *obj.Key == "" {
				continue
			}
			out = append(out, domain.ObjectInfo{Key: *obj.Key, Size: aws.ToInt64(obj.Size)})
		}
	}
	return out, nil
}

// Get downloads the full object body.
func (s *Source) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, &awss3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w: %w", bucket, key, domain.ErrObjectSource, err)
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w: %w", bucket, key, domain.ErrObjectSource, err)
	}
	return data, nil
}
