package util

import "golang.org/x/crypto/bcrypt"

// passwordCost is the bcrypt work factor for stored credentials. 12 keeps
// a single hash in the hundreds of milliseconds, slow enough to blunt
// offline guessing without stalling logins.
const passwordCost = 12

// HashPassword derives the bcrypt hash stored in place of the password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored hash
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
