// Package blobstore provides storage abstraction for input datasets and
// result reports.
//
// BlobStore is the interface for reading and writing data blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with mmap support
//   - MemoryStore: In-memory blobs for tests
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible storage
//
// Blobs that can stream a byte range implement Ranger; NewReader uses it to
// avoid one request per read.
package blobstore
