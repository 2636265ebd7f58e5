package core

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ExpectedHash is a manifest hash entry such as "sha512:abcd..". Entries
// without a prefix are sha256.
type ExpectedHash struct {
	Algorithm string
	Digest    string
}

func ParseExpectedHash(value string) (ExpectedHash, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	algorithm, digest, ok := strings.Cut(value, ":")
	if !ok {
		algorithm, digest = "sha256", value
	}
	expected := ExpectedHash{Algorithm: algorithm, Digest: digest}
	hasher, err := expected.hasher()
	if err != nil {
		return ExpectedHash{}, err
	}
	if _, err := hex.DecodeString(digest); err != nil || len(digest) != hasher.Size()*2 {
		return ExpectedHash{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid %s hash %q", algorithm, value))
	}
	return expected, nil
}

func (h ExpectedHash) New() hash.Hash {
	hasher, err := h.hasher()
	if err != nil {
		return sha256.New()
	}
	return hasher
}

func (h ExpectedHash) hasher() (hash.Hash, error) {
	switch h.Algorithm {
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported hash algorithm %q", h.Algorithm))
	}
}

// Verify compares a computed digest with the expected one.
func (h ExpectedHash) Verify(sum []byte) error {
	actual := hex.EncodeToString(sum)
	if actual != h.Digest {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("hash mismatch: expected %s:%s, got %s", h.Algorithm, h.Digest, actual))
	}
	return nil
}
