package cloudaccount

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "correct-horse-battery-staple" {
		t.Fatal("HashPassword() must not return the plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse-battery-staple")); err != nil {
		t.Errorf("bcrypt.CompareHashAndPassword() error = %v, want match", err)
	}
}

func TestHashPassword_WrongPasswordRejected(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong-password")); err == nil {
		t.Error("expected mismatch error for wrong password")
	}
}

func TestHashPassword_DifferentSaltsEachTime(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if a == b {
		t.Error("expected different hashes for the same password (random salt)")
	}
}
