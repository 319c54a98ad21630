// Package storage provides the object storage client used to archive sync
// report snapshots.
//
// It wraps the Minio S3 client behind a narrow interface so features depend
// only on the operations they use and tests can substitute the mock in the
// mocks subpackage.
package storage
