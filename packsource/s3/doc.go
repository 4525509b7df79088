// Package s3 provides an S3 implementation of the packsource.Source interface.
//
// # Usage
//
//	src, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("datasets/jp/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	eng, err := lexgo.Open(ctx, src)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Parallel part downloads for whole chunks via the transfer manager
//   - Automatic pagination for listing
//   - Configurable prefix so one bucket can hold several datasets
//
// Wrap the source in packsource.NewCaching to avoid re-fetching hot index
// blocks on every lookup.
package s3
