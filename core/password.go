package core

import "golang.org/x/crypto/bcrypt"

var PasswordCost = 12 // lowered in tests

func HashPassword(pwd string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(pwd), PasswordCost)
}

func CheckPassword(hash []byte, pwd string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(pwd))
}
