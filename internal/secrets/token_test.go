package secrets

import "testing"

func TestNewToken(t *testing.T) {
	token := NewToken()

	if len(token) != 43 {
		t.Errorf("token length = %d, want 43 for 32 raw bytes", len(token))
	}
	if token == NewToken() {
		t.Error("two generated tokens are identical")
	}
}

func TestShortHash(t *testing.T) {
	hash := ShortHash("secret")

	if len(hash) != 8 {
		t.Errorf("hash length = %d, want 8", len(hash))
	}
	// sha256("secret") starts with 2bb80d53.
	if hash != "2bb80d53" {
		t.Errorf("ShortHash(secret) = %s, want 2bb80d53", hash)
	}
}

func TestSha256Hex(t *testing.T) {
	got := Sha256Hex("secret")
	want := "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	if got != want {
		t.Errorf("Sha256Hex(secret) = %s, want %s", got, want)
	}
}
