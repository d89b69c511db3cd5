// Package upload stores submitted files. S3 writes to S3-compatible object storage,
// Dir copies into a local directory. Both satisfy formrig.Uploader and key objects by
// file name.
package upload
