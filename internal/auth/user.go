package auth

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User is a registered account. Password holds a bcrypt hash; records
// written by older versions hold the plain password and are still accepted.
type User struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is the explicit session context: who is logged in.
type Session struct {
	Email string `json:"email"`
}

func (s *Session) valid() bool {
	return s != nil && s.Email != ""
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcrypt(stored string) bool {
	return strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$")
}

// checkPassword compares in constant time for plain records.
func (u User) checkPassword(plain string) bool {
	if isBcrypt(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(u.Password), []byte(plain)) == 1
}
