// Package checksum computes and compares the content fingerprints used by
// the registry, both for download integrity and for local version identity.
//
// Fingerprints are strings of the form "<algorithm>:<hex-digest>". Only
// sha256 is recognized; any other algorithm is a registry-format error and
// is never reported as a plain mismatch.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// AlgorithmSHA256 is the only supported fingerprint algorithm
const AlgorithmSHA256 = "sha256"

var (
	// ErrUnsupportedAlgorithm indicates a fingerprint uses an algorithm other than sha256.
	ErrUnsupportedAlgorithm = errors.New("unsupported checksum algorithm")

	// ErrMalformed indicates a fingerprint is not of the form "<algorithm>:<hex>".
	ErrMalformed = errors.New("malformed checksum")

	// ErrMismatch indicates computed content does not match the declared fingerprint.
	ErrMismatch = errors.New("checksum mismatch")
)

// MismatchError names the file whose content failed verification.
// It wraps ErrMismatch so callers can use errors.Is for classification.
type MismatchError struct {
	Filename string
	Expected string
	Got      string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum check for %s failed\nexpected: %s\ngot:      %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrMismatch.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Digest returns the sha256 fingerprint of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return AlgorithmSHA256 + ":" + hex.EncodeToString(sum[:])
}

// DigestFile streams the file at path through sha256 and returns its fingerprint.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}

	return AlgorithmSHA256 + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

// Parse splits a fingerprint into its algorithm and digest parts.
func Parse(s string) (algorithm, digest string, err error) {
	algorithm, digest, ok := strings.Cut(s, ":")
	if !ok || algorithm == "" || digest == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if algorithm != AlgorithmSHA256 {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}
	return algorithm, digest, nil
}

// Validate reports whether s is a well-formed fingerprint with a supported algorithm.
func Validate(s string) error {
	_, _, err := Parse(s)
	return err
}

// Matches reports whether data has the fingerprint expected.
// An invalid expected string is returned as an error, not as a mismatch.
func Matches(data []byte, expected string) (bool, error) {
	if err := Validate(expected); err != nil {
		return false, err
	}
	return Digest(data) == expected, nil
}

// Verify checks data against expected and returns a *MismatchError naming
// filename when they differ.
func Verify(filename string, data []byte, expected string) error {
	ok, err := Matches(data, expected)
	if err != nil {
		return fmt.Errorf("checksum of %s: %w", filename, err)
	}
	if !ok {
		return &MismatchError{
			Filename: filename,
			Expected: expected,
			Got:      Digest(data),
		}
	}
	return nil
}
