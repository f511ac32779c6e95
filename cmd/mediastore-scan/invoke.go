package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mediastore-bridge/internal/bridge"
	"mediastore-bridge/pkg/client"

	"github.com/spf13/cobra"
)

// invokeCmd represents the invoke command
var invokeCmd = &cobra.Command{
	Use:   "invoke <method> [key=value...]",
	Short: "Send a raw invocation on the channel",
	Long:  "Sends <method> with string arguments given as key=value pairs and prints the outcome.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		call, err := parseInvocation(args)
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		return runInvoke(cmd.Context(), c, call, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(invokeCmd)
}

type invoker interface {
	Invoke(ctx context.Context, call client.MethodCall) (client.Outcome, error)
}

func parseInvocation(args []string) (client.MethodCall, error) {
	call := client.MethodCall{Method: strings.TrimSpace(args[0])}
	if call.Method == "" {
		return call, fmt.Errorf("method must not be empty")
	}
	for _, kv := range args[1:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return call, fmt.Errorf("argument %q is not key=value", kv)
		}
		if call.Args == nil {
			call.Args = make(map[string]any)
		}
		call.Args[key] = value
	}
	return call, nil
}

func runInvoke(ctx context.Context, inv invoker, call client.MethodCall, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	outcome, err := inv.Invoke(ctx, call)
	if err != nil {
		return err
	}
	switch outcome.Kind {
	case bridge.KindNotImplemented:
		_, _ = fmt.Fprintf(out, "%s: not implemented by host\n", call.Method)
		return nil
	case bridge.KindError:
		_, _ = fmt.Fprintf(out, "%s: %s\n", call.Method, outcome.Err.Error())
		return outcome.Err
	default:
		_, _ = fmt.Fprintf(out, "%s: success\n", call.Method)
		return nil
	}
}
