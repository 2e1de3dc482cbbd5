package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptData(t *testing.T) {
	plaintext := []byte("SQLite format 3\x00 some pages")

	encrypted, err := EncryptData(plaintext, "correct horse")
	if err != nil {
		t.Fatalf("EncryptData failed: %v", err)
	}
	if bytes.Contains(encrypted, plaintext) {
		t.Error("ciphertext contains plaintext")
	}

	decrypted, err := DecryptData(encrypted, "correct horse")
	if err != nil {
		t.Fatalf("DecryptData failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}

	if _, err := DecryptData(encrypted, "wrong"); err == nil {
		t.Error("expected error for wrong passphrase")
	}
}

func TestEncryptData_RequiresPassphrase(t *testing.T) {
	if _, err := EncryptData([]byte("x"), ""); err == nil {
		t.Error("expected error for empty passphrase")
	}
	if _, err := DecryptData([]byte("x"), "p"); err == nil {
		t.Error("expected error for data without header")
	}
}

func TestEncryptDecryptFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.db")
	enc := filepath.Join(dir, "plain.db.enc")
	out := filepath.Join(dir, "restored.db")

	if err := os.WriteFile(src, []byte("database bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := EncryptFile(src, enc, "pw"); err != nil {
		t.Fatalf("EncryptFile failed: %v", err)
	}
	if err := DecryptFile(enc, out, "pw"); err != nil {
		t.Fatalf("DecryptFile failed: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "database bytes" {
		t.Errorf("restored = %q", got)
	}
}
