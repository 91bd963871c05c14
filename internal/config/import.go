package config

import "time"

type Import struct {
	// Timeout bounds a single CSV import request end to end,
	// including the snapshot read and the batch commit.
	Timeout time.Duration `env:"IMPORT_TIMEOUT" envDefault:"30s"`

	// MaxUploadBytes caps the multipart file size accepted by the
	// import endpoint.
	MaxUploadBytes int64 `env:"IMPORT_MAX_UPLOAD_BYTES" envDefault:"10485760"`
}
