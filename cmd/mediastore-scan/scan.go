package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"mediastore-bridge/pkg/client"

	"github.com/spf13/cobra"
)

var scanParallel int

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <path>...",
	Short: "Ask the host to index one or more files",
	Long:  "Submits each path with scanFile, concurrently, and prints one outcome line per path in argument order. Relative paths are made absolute.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return runScan(cmd.Context(), c, args, scanParallel, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntVarP(&scanParallel, "parallel", "j", 4, "concurrent submissions")
}

type scanner interface {
	ScanFile(ctx context.Context, path string) error
}

type scanResult struct {
	path string
	err  error
}

// runScan submits every path and reports outcomes. NotImplemented is a
// capability notice and does not fail the run.
func runScan(ctx context.Context, s scanner, paths []string, parallel int, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel < 1 {
		parallel = 1
	}

	results := make([]scanResult, len(paths))
	sem := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil && p != "" {
			p = abs
		}
		results[i].path = p

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i].err = s.ScanFile(ctx, p)
		}(i, p)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		var bridgeErr *client.Error
		switch {
		case r.err == nil:
			_, _ = fmt.Fprintf(out, "ok            %s\n", r.path)
		case errors.Is(r.err, client.ErrNotImplemented):
			_, _ = fmt.Fprintf(out, "unsupported   %s (host has no scan action)\n", r.path)
		case errors.As(r.err, &bridgeErr):
			failed++
			_, _ = fmt.Fprintf(out, "error         %s %s: %s\n", r.path, bridgeErr.Code, bridgeErr.Message)
		default:
			failed++
			_, _ = fmt.Fprintf(out, "failed        %s: %v\n", r.path, r.err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scans failed", failed, len(paths))
	}
	return nil
}
