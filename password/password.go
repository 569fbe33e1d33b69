// Package password derives and verifies one-way user credentials.
package password

import "golang.org/x/crypto/bcrypt"

const cost = bcrypt.DefaultCost

// Hash derives a one-way credential from the plaintext. Every call uses a
// fresh random salt, so equal passwords yield distinct credentials.
func Hash(plaintext string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether the plaintext matches the stored credential. The
// comparison does not short-circuit on prefix mismatch.
func Verify(plaintext, credential string) bool {
	return bcrypt.CompareHashAndPassword([]byte(credential), []byte(plaintext)) == nil
}
