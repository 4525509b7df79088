package lexgo

import (
	"log/slog"

	"github.com/hupe1980/lexgo/codec"
	"github.com/hupe1980/lexgo/resource"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	resource         *resource.Config
	cacheBytes       int64
	cacheBlockSize   int64
}

// Option configures Open behavior.
type Option func(*options)

// WithCodec configures the codec used for decoding pack documents.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithResourceConfig bounds memory admission, scan concurrency and IO
// throughput for everything the engine reads. Without it, reads run
// unthrottled.
func WithResourceConfig(cfg resource.Config) Option {
	return func(o *options) {
		o.resource = &cfg
	}
}

// WithBlockCache wraps the source in an LZ4-compressed block LRU of the
// given capacity. Use it together with remote sources (S3, MinIO); a local
// mmap-backed source gains nothing over the page cache.
//
// blockSize <= 0 selects the 64KB default.
func WithBlockCache(capacityBytes, blockSize int64) Option {
	return func(o *options) {
		o.cacheBytes = capacityBytes
		o.cacheBlockSize = blockSize
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &lexgo.BasicMetricsCollector{}
//	eng, _ := lexgo.Open(ctx, src, lexgo.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := lexgo.NewJSONLogger(slog.LevelInfo)
//	eng, _ := lexgo.Open(ctx, src, lexgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            nil,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
