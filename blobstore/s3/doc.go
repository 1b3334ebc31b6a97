// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "datasets/")
//
//	points, err := dataset.Load(ctx, store, "points.csv.zst")
//
// # Features
//
//   - Streaming range reads for dataset ingestion
//   - Multipart uploads for large reports
//   - Configurable prefix for multi-tenant isolation
package s3
