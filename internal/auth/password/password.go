package password

import "golang.org/x/crypto/bcrypt"

// Hash returns a bcrypt hash of the plaintext at the default cost.
func Hash(plain string) (string, error) {
	raw, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Verify reports whether plain matches the stored bcrypt hash.
func Verify(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
