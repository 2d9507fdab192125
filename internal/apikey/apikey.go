// Package apikey generates and verifies bearer API keys.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// Prefix marks every raw key issued by Hindsight.
	Prefix = "hs_"

	// PrefixLen is the number of leading characters stored in clear text and
	// used to look a key up before the bcrypt comparison.
	PrefixLen = 8

	secretBytes = 24
)

// Key is a freshly generated key. Raw is shown to the operator once and never stored.
type Key struct {
	Raw    string
	Prefix string
	Hash   string
}

// Generate creates a new random key and its bcrypt hash.
func Generate() (*Key, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	raw := Prefix + hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &Key{Raw: raw, Prefix: raw[:PrefixLen], Hash: string(hash)}, nil
}

// PrefixOf returns the lookup prefix of a raw key, or false if it is too short.
func PrefixOf(raw string) (string, bool) {
	if len(raw) < PrefixLen {
		return "", false
	}
	return raw[:PrefixLen], true
}

// Verify reports whether raw matches the stored bcrypt hash.
func Verify(hash, raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// ParseScopes splits a comma separated scope list, dropping blanks.
func ParseScopes(s string) []string {
	scopes := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}
