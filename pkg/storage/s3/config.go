package s3

// Config holds the options of an s3 destination
type Config struct {
	Endpoint        string `json:"endpoint"`          // optional, for MinIO or localstack
	Region          string `json:"region"`            // AWS region
	Bucket          string `json:"bucket"`            // bucket name
	Prefix          string `json:"prefix"`            // key prefix, e.g. "odoo"
	AccessKeyID     string `json:"access_key_id"`     // optional, default credential chain otherwise
	SecretAccessKey string `json:"secret_access_key"` // required with access_key_id
	UseSSL          bool   `json:"use_ssl"`           // default true
	ForcePathStyle  bool   `json:"force_path_style"`  // required by MinIO and localstack
}
