package bridge

import (
	"fmt"
	"strings"
)

// ChannelSuffix is the fixed last segment of the channel identifier.
const ChannelSuffix = "media_store"

// DefaultNamespace is the channel namespace used when none is configured.
const DefaultNamespace = "com.example.mediastore"

// Channel identifies the bridge endpoint as "<namespace>/media_store".
// Both ends must use the same identifier.
type Channel string

// NewChannel builds the channel identifier for namespace.
func NewChannel(namespace string) (Channel, error) {
	if err := validateNamespace(namespace); err != nil {
		return "", err
	}
	return Channel(namespace + "/" + ChannelSuffix), nil
}

// ParseChannel validates a full channel identifier.
func ParseChannel(name string) (Channel, error) {
	namespace, suffix, ok := strings.Cut(name, "/")
	if !ok || suffix != ChannelSuffix {
		return "", fmt.Errorf("channel %q does not end in /%s", name, ChannelSuffix)
	}
	return NewChannel(namespace)
}

// Namespace returns the part before "/media_store".
func (c Channel) Namespace() string {
	return strings.TrimSuffix(string(c), "/"+ChannelSuffix)
}

func (c Channel) String() string {
	return string(c)
}

func validateNamespace(namespace string) error {
	if namespace == "" {
		return fmt.Errorf("channel namespace is empty")
	}
	if strings.ContainsAny(namespace, "/ \t\r\n") {
		return fmt.Errorf("channel namespace %q must not contain '/' or whitespace", namespace)
	}
	return nil
}
