package main

import (
	"os"
	"time"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/pkg/client"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	hostURL   string
	namespace string
	token     string
	timeout   time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "mediastore-scan",
	Short:         "Ask a bridge host to index media files",
	Long:          "Sends scanFile and raw invocations to the <namespace>/media_store channel of a running bridge host.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hostURL, "host", envOr("BRIDGE_URL", "http://127.0.0.1:8080"), "bridge host base URL")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", envOr("CHANNEL_NAMESPACE", bridge.DefaultNamespace), "channel namespace")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("BRIDGE_TOKEN"), "bearer token (defaults to $BRIDGE_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "per-invocation timeout")
}

func newClient() (*client.Client, error) {
	return client.New(client.Config{
		BaseURL:   hostURL,
		Namespace: namespace,
		Token:     token,
		Timeout:   timeout,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
