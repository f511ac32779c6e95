/*
Package filesystem provides resilient filesystem operations with automatic retry logic
for NFS stale file handle errors.

Scan requests frequently name files on network storage that was written a
moment earlier by another host, which is exactly when ESTALE shows up. The
indexer therefore stats and opens scanned files through this package.

# Usage

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
	    return err
	}

# Retry Behavior

Only ESTALE (errno 116 on Linux) triggers a retry. Backoff starts at
InitialBackoff and doubles up to MaxBackoff; all other errors are returned
immediately.

# Metrics

Retry attempts, successes, failures and durations are reported through the
Observer installed with SetObserver, labelled by the volume that
VolumeResolver maps the path to.
*/
package filesystem
