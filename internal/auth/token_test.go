package auth

import "testing"

func TestVerifyToken(t *testing.T) {
	hash, err := HashToken("s3cret")
	if err != nil {
		t.Fatalf("HashToken failed: %v", err)
	}
	if !VerifyToken(hash, "s3cret") {
		t.Error("matching token should verify")
	}
	if VerifyToken(hash, "wrong") {
		t.Error("non-matching token should not verify")
	}
	if VerifyToken("not-a-hash", "s3cret") {
		t.Error("garbage hash should not verify")
	}
}
