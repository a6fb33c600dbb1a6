package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const hashScheme = "scrypt"

// PasswordParams are the scrypt cost parameters used for new hashes.
type PasswordParams struct {
	N       int // CPU/memory cost
	R       int // block size
	P       int // parallelization
	SaltLen int
	KeyLen  int
}

// DefaultPasswordParams returns the OWASP minimum scrypt parameters.
func DefaultPasswordParams() PasswordParams {
	return PasswordParams{
		N:       32768,
		R:       8,
		P:       1,
		SaltLen: 16,
		KeyLen:  32,
	}
}

// HashPassword hashes password with DefaultPasswordParams.
func HashPassword(password string) (string, error) {
	return HashPasswordWithParams(password, DefaultPasswordParams())
}

// HashPasswordWithParams returns "scrypt$N$r$p$salt$key" with unpadded
// standard base64 for salt and key.
func HashPasswordWithParams(password string, params PasswordParams) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.KeyLen)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return strings.Join([]string{
		hashScheme,
		strconv.Itoa(params.N),
		strconv.Itoa(params.R),
		strconv.Itoa(params.P),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// VerifyPassword reports whether password matches encoded. A malformed hash
// yields ErrMalformedHash.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, want, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	got, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, len(want))
	if err != nil {
		return false, fmt.Errorf("failed to derive key: %w", err)
	}

	return SecureCompare(got, want), nil
}

func decodeHash(encoded string) (PasswordParams, []byte, []byte, error) {
	var params PasswordParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != hashScheme {
		return params, nil, nil, ErrMalformedHash
	}

	ints := make([]int, 3)
	for i, raw := range parts[1:4] {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return params, nil, nil, fmt.Errorf("%w: bad cost parameter %q", ErrMalformedHash, raw)
		}
		ints[i] = v
	}
	params.N, params.R, params.P = ints[0], ints[1], ints[2]

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, fmt.Errorf("%w: bad key", ErrMalformedHash)
	}

	params.SaltLen, params.KeyLen = len(salt), len(key)
	return params, salt, key, nil
}

// SecureCompare performs constant-time comparison
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
