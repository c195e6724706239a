package pkg

import "golang.org/x/crypto/bcrypt"

const hashCost = 14

// HashPassword returns the bcrypt hash of a secret (e.g. the API token), for the config.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	return BytesToString(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
