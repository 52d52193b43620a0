package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/corpix/uarand"
)

// S3Config holds the object-storage credentials for s3:// source locations.
// All fields empty disables the S3 scheme.
type S3Config struct {
	Endpoint    string
	AccessKeyID string
	SecretKey   string
}

func (c S3Config) enabled() bool {
	return c.AccessKeyID != "" && c.SecretKey != ""
}

// Fetcher retrieves a knowledge source payload from its location, which may
// be an http(s):// URL (published sheet), an s3://bucket/key object, or a
// local file path.
type Fetcher struct {
	httpClient *http.Client
	s3Client   *s3.Client
}

// NewFetcher creates a fetcher. The S3 client is only constructed when
// credentials are configured.
func NewFetcher(ctx context.Context, cfg S3Config, timeout time.Duration) (*Fetcher, error) {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
	}

	if cfg.enabled() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretKey,
				"",
			)),
			awsconfig.WithRegion("auto"),
		)
		if err != nil {
			return nil, fmt.Errorf("fetcher: load aws config: %w", err)
		}
		f.s3Client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
				o.UsePathStyle = true
			}
		})
	}

	return f, nil
}

// Fetch opens the payload at location. The caller must close the returned
// body.
func (f *Fetcher) Fetch(ctx context.Context, location string) (io.ReadCloser, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		return f.fetchS3(ctx, location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return f.fetchHTTP(ctx, location)
	default:
		return os.Open(location)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetcher: create request: %w", err)
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "text/html,text/csv,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-TW,zh;q=0.9,en;q=0.7")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: get %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetcher: get %s: status %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, location string) (io.ReadCloser, error) {
	if f.s3Client == nil {
		return nil, errors.New("fetcher: s3 location given but no s3 credentials configured")
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("fetcher: parse %s: %w", location, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("fetcher: malformed s3 location %s", location)
	}

	result, err := f.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetcher: get s3 object %s: %w", location, err)
	}
	return result.Body, nil
}
