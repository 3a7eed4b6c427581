package license

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Key format: SCO-XXXX-XXXX-XXXX
	keyPrefix   = "SCO"
	keyGroups   = 3
	keyGroupLen = 4

	// Unambiguous alphabet: no I, O, 0, 1.
	keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateKeyCode produces a fresh random key code in canonical dashed form.
func GenerateKeyCode() (string, error) {
	groups := make([]string, 0, keyGroups)
	for i := 0; i < keyGroups; i++ {
		g, err := randomGroup(keyGroupLen)
		if err != nil {
			return "", err
		}
		groups = append(groups, g)
	}
	return keyPrefix + "-" + strings.Join(groups, "-"), nil
}

func randomGroup(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(keyAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = keyAlphabet[num.Int64()]
	}
	return string(b), nil
}

// NormalizeKeyCode uppercases the submitted code, strips separators and any
// stray characters, and re-assembles the canonical dashed form. Returns
// false when the result is not a well-formed key.
func NormalizeKeyCode(raw string) (string, bool) {
	var sb strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}

	clean := sb.String()
	if !strings.HasPrefix(clean, keyPrefix) {
		return "", false
	}

	body := clean[len(keyPrefix):]
	if len(body) != keyGroups*keyGroupLen {
		return "", false
	}

	groups := make([]string, 0, keyGroups)
	for i := 0; i < keyGroups; i++ {
		groups = append(groups, body[i*keyGroupLen:(i+1)*keyGroupLen])
	}
	return keyPrefix + "-" + strings.Join(groups, "-"), true
}

// maskKeyCode hides the middle groups for logging.
func maskKeyCode(code string) string {
	if len(code) < 8 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", code[:4], code[len(code)-4:])
}
