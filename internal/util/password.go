package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashIterations = 100000
	saltBytes      = 16
	keyBytes       = 32
	tokenBytes     = 32
)

// HashPassword derives a PBKDF2-SHA256 key from password with a random
// salt. The encoding is "iterations$base64(salt)$base64(key)".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, hashIterations, keyBytes, sha256.New)

	return fmt.Sprintf("%d$%s$%s",
		hashIterations,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword re-derives the key using the stored salt and iteration
// count and compares in constant time. Any malformed encoding fails
// closed.
func VerifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 {
		return false
	}

	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations <= 0 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	stored, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return false
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keyBytes, sha256.New)

	return subtle.ConstantTimeCompare(key, stored) == 1
}

// GenerateToken returns a 256-bit random hex token for session ids.
func GenerateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
