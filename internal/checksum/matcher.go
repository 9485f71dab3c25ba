package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"os"
)

// ChecksumMatcher verifies that a copied workbook is byte-identical to its source.
type ChecksumMatcher struct {
	expectedChecksum string
}

// NewChecksumMatcher creates a new ChecksumMatcher with the expected checksum.
func NewChecksumMatcher(expectedChecksum string) *ChecksumMatcher {
	return &ChecksumMatcher{expectedChecksum: expectedChecksum}
}

// Sum returns the hex SHA-256 of data.
func Sum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// SumFile returns the hex SHA-256 of the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Expected returns the checksum the matcher compares against.
func (cm *ChecksumMatcher) Expected() string { return cm.expectedChecksum }

// Match checks if the provided data's checksum matches the expected checksum.
func (cm *ChecksumMatcher) Match(data []byte) (bool, error) {
	if cm.expectedChecksum == "" {
		return false, errors.New("expected checksum is not set")
	}
	return Sum(data) == cm.expectedChecksum, nil
}

// MatchFile is Match for a file on disk.
func (cm *ChecksumMatcher) MatchFile(path string) (bool, error) {
	if cm.expectedChecksum == "" {
		return false, errors.New("expected checksum is not set")
	}
	sum, err := SumFile(path)
	if err != nil {
		return false, err
	}
	return sum == cm.expectedChecksum, nil
}
