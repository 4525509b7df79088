// Package minio provides a packsource.Source implementation using the MinIO
// client.
//
// MinIO is a high-performance, S3-compatible object storage system. This
// package uses the official MinIO Go client library for optimal compatibility
// with MinIO and other S3-compatible storage systems like Ceph, SeaweedFS,
// and Garage.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src := miniosource.NewSource(client, "my-bucket", "datasets/jp/")
//	eng, err := lexgo.Open(ctx, src)
//
// # Features
//
//   - Native MinIO client with optimal performance
//   - Works with any S3-compatible storage (Ceph, Garage, SeaweedFS)
//   - Range reads for efficient partial fetches
//   - Air-gap friendly (no AWS dependencies required)
package minio
