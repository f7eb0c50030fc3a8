package adaptive

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return key
}

func TestNewSelectsCipher(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	switch c.Type() {
	case CipherAESGCM, CipherChaCha20:
	default:
		t.Fatalf("unexpected cipher type %q", c.Type())
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		c, err := NewWithType(key, typ)
		if err != nil {
			t.Fatalf("NewWithType(%s): %v", typ, err)
		}

		plaintext := []byte("registry snapshot payload")
		aad := []byte("header")

		sealed, err := c.Encrypt(plaintext, aad)
		if err != nil {
			t.Fatalf("%s Encrypt: %v", typ, err)
		}
		opened, err := c.Decrypt(sealed, aad)
		if err != nil {
			t.Fatalf("%s Decrypt: %v", typ, err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Fatalf("%s round trip = %q, want %q", typ, opened, plaintext)
		}
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	c, err := NewWithType(testKey(t), CipherChaCha20)
	if err != nil {
		t.Fatalf("NewWithType: %v", err)
	}

	sealed, err := c.Encrypt([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff

	if _, err := c.Decrypt(sealed, nil); err == nil {
		t.Fatal("Decrypt accepted tampered ciphertext")
	}
}

func TestDecryptRejectsWrongAAD(t *testing.T) {
	c, err := NewWithType(testKey(t), CipherAESGCM)
	if err != nil {
		t.Fatalf("NewWithType: %v", err)
	}

	sealed, err := c.Encrypt([]byte("payload"), []byte("aad-1"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := c.Decrypt(sealed, []byte("aad-2")); err == nil {
		t.Fatal("Decrypt accepted mismatched additional data")
	}
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	c, err := New(testKey(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Decrypt([]byte{0x01}, nil); err == nil {
		t.Fatal("Decrypt accepted truncated ciphertext")
	}
}

func TestInvalidKeySizes(t *testing.T) {
	if _, err := NewAESGCM(make([]byte, 15)); err == nil {
		t.Fatal("NewAESGCM accepted 15-byte key")
	}
	if _, err := NewChaCha20(make([]byte, 16)); err == nil {
		t.Fatal("NewChaCha20 accepted 16-byte key")
	}
	if _, err := NewWithType(make([]byte, 32), CipherType("rot13")); err == nil {
		t.Fatal("NewWithType accepted unknown cipher type")
	}
}
