package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/lexgo/packsource"
)

// Client is the subset of the S3 API the source depends on.
// *s3.Client satisfies it; tests substitute a mock.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// DownloadConfig configures the transfer manager used for whole-file fetches.
type DownloadConfig struct {
	// PartSize is the size of each ranged part request.
	// Default: 8MB (larger than SDK default of 5MB for better throughput)
	PartSize int64

	// Concurrency is the number of concurrent part downloads.
	// Default: 5 (matches SDK default)
	Concurrency int
}

// DefaultDownloadConfig returns production-oriented download settings.
func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		PartSize:    8 * 1024 * 1024,
		Concurrency: 5,
	}
}

// Options configures the S3 source.
type Options struct {
	// Prefix is prepended to all pack file names (e.g. "datasets/jp/").
	Prefix string

	// Region overrides the region resolved from the environment.
	Region string

	// Client overrides the S3 client built from the default AWS config.
	Client Client

	// Download configures the transfer manager for whole-file fetches.
	Download DownloadConfig
}

// Option mutates the source options.
type Option func(*Options)

// WithPrefix sets the key prefix under which the dataset lives.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion pins the bucket region instead of resolving it from the
// environment.
func WithRegion(region string) Option {
	return func(o *Options) { o.Region = region }
}

// WithClient supplies a pre-configured client, skipping default AWS config
// loading.
func WithClient(client Client) Option {
	return func(o *Options) { o.Client = client }
}

// WithDownloadConfig overrides the transfer manager settings.
func WithDownloadConfig(cfg DownloadConfig) Option {
	return func(o *Options) { o.Download = cfg }
}

// Source implements packsource.Source for Amazon S3.
type Source struct {
	client     Client
	bucket     string
	prefix     string
	downloader *manager.Downloader
}

// New creates an S3 source for the given bucket, loading credentials and
// region from the default AWS config chain.
//
//	src, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/jp/"),
//	    s3.WithRegion("eu-central-1"),
//	)
func New(ctx context.Context, bucket string, optFns ...Option) (*Source, error) {
	opts := Options{Download: DefaultDownloadConfig()}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.Client
	if client == nil {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = s3.NewFromConfig(cfg)
	}

	return NewSource(client, bucket, opts.Prefix, opts.Download), nil
}

// NewSource creates an S3 source from an existing client.
// rootPrefix is prepended to all names (e.g. "datasets/jp/").
func NewSource(client Client, bucket, rootPrefix string, download DownloadConfig) *Source {
	if download.PartSize <= 0 {
		download = DefaultDownloadConfig()
	}
	return &Source{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = download.PartSize
			d.Concurrency = download.Concurrency
		}),
	}
}

func (s *Source) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open opens a pack file for reading. Existence and size are verified with a
// HeadObject probe; subsequent reads are ranged GETs.
func (s *Source) Open(ctx context.Context, name string) (packsource.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, packsource.ErrNotFound
		}
		return nil, err
	}

	return &blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// List returns all pack files under the configured prefix starting with
// prefix, sorted by name.
func (s *Source) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)
	var names []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			rel := aws.ToString(obj.Key)
			if len(s.prefix) > 0 && len(rel) > len(s.prefix) && rel[:len(s.prefix)] == s.prefix {
				rel = rel[len(s.prefix):]
				if len(rel) > 0 && rel[0] == '/' {
					rel = rel[1:]
				}
			}
			names = append(names, rel)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Download fetches a whole pack file via the transfer manager, which splits
// the object into parallel ranged parts. Whole-chunk reads take this path
// instead of sequential ranged GETs.
func (s *Source) Download(ctx context.Context, name string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer(nil)

	_, err := s.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, packsource.ErrNotFound
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

// blob implements packsource.Blob over ranged GETs.
type blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *blob) Close() error {
	return nil
}

func (b *blob) Size() int64 {
	return b.size
}

func (b *blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	n, err := io.ReadFull(resp.Body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		// The requested range was clamped at the object end.
		return n, io.EOF
	}
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= b.size {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	end := off + length - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}
