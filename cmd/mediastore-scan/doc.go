/*
Mediastore-scan asks a running bridge host to index media files.

Usage:

	mediastore-scan scan [--host URL] [-n namespace] [-j N] <path>...
	mediastore-scan invoke <method> [key=value...]

The host URL defaults to $BRIDGE_URL, the namespace to $CHANNEL_NAMESPACE
and the bearer token to $BRIDGE_TOKEN. A host without a scan action is
reported as unsupported and is not an error.
*/
package main
