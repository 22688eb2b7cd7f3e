// Package s3 sweeps S3-compatible object storage during teardown.
//
// Buckets whose names start with the cluster prefix are emptied and then
// deleted. The endpoint is addressed path-style so that non-AWS services
// work without DNS wildcards.
package s3
