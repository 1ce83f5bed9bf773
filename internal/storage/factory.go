package storage

// Config holds configuration for the product-image object store.
type Config struct {
	Type      string // "s3" or "minio"; empty defaults to minio
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Region    string
	PublicURL string // public URL prefix (CDN or bucket website), optional
}

// New creates an ObjectStorage instance based on the configuration.
// Parameters:
//   - cfg: storage configuration including endpoint, credentials, and bucket.
// Returns:
//   - ObjectStorage: initialized storage client implementation.
//   - error: non-nil if the storage client cannot be created.
func New(cfg *Config) (ObjectStorage, error) {
	if cfg.Type == "s3" {
		return NewS3Storage(cfg)
	}
	return NewMinIOStorage(cfg)
}
