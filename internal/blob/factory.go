package blob

import (
	"context"
	"fmt"
)

// Options selects and configures a blob driver.
type Options struct {
	Driver      Driver
	FsRoot      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool
}

// Open constructs the Store selected by opts.Driver (default fs).
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(opts.FsRoot)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    opts.S3Bucket,
			Region:    opts.S3Region,
			Endpoint:  opts.S3Endpoint,
			PathStyle: opts.S3PathStyle,
		})
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}
