// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible storage systems such as Ceph,
// SeaweedFS and Garage, without pulling in the AWS SDK.
//
//	store, err := minio.New("localhost:9000", "minioadmin", "minioadmin", false, "datasets", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	points, err := dataset.Load(ctx, store, "points.csv.lz4")
package minio
