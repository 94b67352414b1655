package config

import (
	"time"

	"github.com/spf13/pflag"
)

// RegisterFlags adds every override flag understood by Load
func RegisterFlags(fs *pflag.FlagSet) {
	// Storage flags
	fs.String("provider", "aws", "Storage provider (aws/minio)")
	fs.String("endpoint", "", "Custom S3 endpoint")
	fs.String("region", "", "Bucket region")
	fs.String("access-key", "", "Access key")
	fs.String("secret-key", "", "Secret key")
	fs.Bool("secure", true, "Use HTTPS for minio endpoints")

	// Conversion flags
	fs.String("bucket", "", "Bucket name (required)")
	fs.String("prefix", "", "Object prefix filter")
	fs.String("storage-classes", "GLACIER#GLACIER_IR", "'#' separated storage classes to convert")
	fs.Duration("poll-interval", time.Hour, "Wait between restore status checks")
	fs.Int("max-poll-rounds", 0, "Give up on pending restores after this many checks (0 = never)")
	fs.Duration("max-wait", 0, "Give up on pending restores after this long (0 = never)")
	fs.Int("restore-days", 10, "Days to keep the restored copy")
	fs.String("restore-tier", "Bulk", "Restore retrieval tier (Bulk/Standard/Expedited)")
	fs.Bool("dry-run", false, "List and classify objects without converting")

	fs.String("log-level", "info", "Log level (debug/info/warn/error)")
	fs.String("log-dir", "logs", "Directory for run log files (empty disables)")
	fs.String("metrics-addr", "", "Address to serve /metrics on (empty disables)")
	fs.String("journal", "", "SQLite file recording per-object outcomes (empty disables)")
	fs.Bool("show-progress", true, "Show progress display (auto-disabled for dry-run)")
}
