package main

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

const (
	// Minimum accepted token length
	minTokenLength = 16
	// Random bytes in a generated token
	generatedTokenBytes = 32
)

var (
	errMismatch = errors.New("tokens do not match")
	errTooShort = fmt.Errorf("token must be at least %d characters", minTokenLength)
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch command := os.Args[1]; command {
	case "generate":
		err = generate(os.Stdout)
	case "hash":
		err = hashInteractive(os.Stdout)
	case "verify":
		err = verifyInteractive(os.Stdout, os.Getenv("BRIDGE_TOKEN_HASH"))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Media Store Bridge Token Management")
	fmt.Println("")
	fmt.Println("Usage: bridgetoken <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  generate - Create a random token and print it with its hash")
	fmt.Println("  hash     - Hash a token read from the terminal")
	fmt.Println("  verify   - Check a token against BRIDGE_TOKEN_HASH")
	fmt.Println("")
	fmt.Println("Set BRIDGE_TOKEN_HASH on the bridge host to the printed hash and")
	fmt.Println("give clients the token via BRIDGE_TOKEN.")
}

func generate(out io.Writer) error {
	token, err := randomToken()
	if err != nil {
		return err
	}
	hash, err := hashToken([]byte(token))
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "BRIDGE_TOKEN=%s\n", token)
	_, _ = fmt.Fprintf(out, "BRIDGE_TOKEN_HASH=%s\n", hash)
	return nil
}

func hashInteractive(out io.Writer) error {
	token, err := readSecret("Token: ")
	if err != nil {
		return err
	}
	confirm, err := readSecret("Confirm Token: ")
	if err != nil {
		return err
	}
	if err := validateToken(token, confirm); err != nil {
		return err
	}

	hash, err := hashToken(token)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "BRIDGE_TOKEN_HASH=%s\n", hash)
	return nil
}

func verifyInteractive(out io.Writer, hash string) error {
	if strings.TrimSpace(hash) == "" {
		return errors.New("BRIDGE_TOKEN_HASH is not set")
	}
	token, err := readSecret("Token: ")
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(strings.TrimSpace(hash)), token); err != nil {
		return fmt.Errorf("token does not match: %w", err)
	}
	_, _ = fmt.Fprintln(out, "Token matches.")
	return nil
}

func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(syscall.Stdin)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}
	return secret, nil
}

func validateToken(token, confirm []byte) error {
	if !bytes.Equal(token, confirm) {
		return errMismatch
	}
	if len(bytes.TrimSpace(token)) < minTokenLength {
		return errTooShort
	}
	return nil
}

func hashToken(token []byte) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(token, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing token: %w", err)
	}
	return string(hash), nil
}

func randomToken() (string, error) {
	buf := make([]byte, generatedTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
