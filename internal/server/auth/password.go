package auth

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost matches the cost the service has always used for stored
// password hashes.
const DefaultBcryptCost = 8

// HashPassword applies a one-way adaptive hash to a raw password. It must
// only be called with raw input; hashing an already-hashed value would lock
// the account out.
func HashPassword(raw string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether raw matches the stored hash.
func CheckPassword(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
