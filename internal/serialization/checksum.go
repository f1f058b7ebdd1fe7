package serialization

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes SHA-256 checksum from an io.Reader.
// This is useful for computing checksums of large files without loading them entirely into memory.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// ValidateChecksum compares computed checksum against stored checksum.
// Returns ErrChecksumMismatch if they don't match.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}

// Verify checks the trailing checksum of a complete file image.
func Verify(data []byte) error {
	if len(data) < ChecksumSize {
		return fmt.Errorf("%w: %d bytes", io.ErrUnexpectedEOF, len(data))
	}
	body := len(data) - ChecksumSize
	return ValidateChecksum(ComputeChecksum(data[:body]), [32]byte(data[body:]))
}

// VerifyFile checks the trailing checksum of a file without decoding it.
func VerifyFile(path string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	body := info.Size() - ChecksumSize
	if body < 0 {
		return fmt.Errorf("%w: %d bytes", io.ErrUnexpectedEOF, info.Size())
	}

	sum, err := ComputeChecksumReader(io.LimitReader(f, body))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	var stored [32]byte
	if _, err := io.ReadFull(f, stored[:]); err != nil {
		return fmt.Errorf("failed to read checksum: %w", err)
	}
	return ValidateChecksum(sum, stored)
}

// hashingReader hashes every byte read through it.
type hashingReader struct {
	r io.Reader
	h hash.Hash
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{r: r, h: sha256.New()}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	hr.h.Write(p[:n])
	return n, err
}

func (hr *hashingReader) sum() [32]byte {
	var s [32]byte
	copy(s[:], hr.h.Sum(nil))
	return s
}
