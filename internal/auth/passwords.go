package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Hasher hashes login secrets and compares candidates against stored hashes.
// Services depend on this interface rather than a concrete algorithm.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Compare(hash, plaintext string) (bool, error)
}

// Argon2idHasher encodes hashes in PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$key) so parameters travel with the
// hash and can be tightened later without invalidating old credentials.
type Argon2idHasher struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLen:     16,
		KeyLen:      32,
	}
}

func (h *Argon2idHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.Iterations, h.Memory, h.Parallelism, h.KeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		h.Memory,
		h.Iterations,
		h.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Compare(hash, plaintext string) (bool, error) {
	stored, salt, key, err := decodeArgon2idHash(hash)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, stored.Iterations, stored.Memory, stored.Parallelism, stored.KeyLen)
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeArgon2idHash(hash string) (Argon2idHasher, []byte, []byte, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return Argon2idHasher{}, nil, nil, errors.New("invalid argon2id hash format")
	}
	if parts[2] != "v=19" {
		return Argon2idHasher{}, nil, nil, errors.New("unsupported argon2 version")
	}

	var h Argon2idHasher
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return Argon2idHasher{}, nil, nil, errors.New("invalid argon2 params")
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Argon2idHasher{}, nil, nil, fmt.Errorf("invalid argon2 %s param", k)
		}
		switch k {
		case "m":
			h.Memory = uint32(n)
		case "t":
			h.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return Argon2idHasher{}, nil, nil, errors.New("invalid argon2 parallelism param")
			}
			h.Parallelism = uint8(n)
		default:
			return Argon2idHasher{}, nil, nil, errors.New("unknown argon2 param")
		}
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Argon2idHasher{}, nil, nil, errors.New("invalid argon2 salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Argon2idHasher{}, nil, nil, errors.New("invalid argon2 key")
	}
	h.SaltLen = uint32(len(salt))
	h.KeyLen = uint32(len(key))
	if h.SaltLen == 0 || h.KeyLen == 0 {
		return Argon2idHasher{}, nil, nil, errors.New("invalid argon2 salt/key")
	}

	return h, salt, key, nil
}
