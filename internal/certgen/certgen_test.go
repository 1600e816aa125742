package certgen

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGenerateSelfSigned(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	certPEM, keyPEM, err := GenerateSelfSigned([]string{"localhost", "127.0.0.1"}, now)
	if err != nil {
		t.Fatalf("GenerateSelfSigned: %v", err)
	}

	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Fatalf("cert and key do not form a pair: %v", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("invalid certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("expected CN localhost, got %q", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("unexpected DNS SANs: %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal([]byte{127, 0, 0, 1}) {
		t.Errorf("unexpected IP SANs: %v", cert.IPAddresses)
	}
	if !cert.NotAfter.Equal(now.Add(Validity)) {
		t.Errorf("expected NotAfter %v, got %v", now.Add(Validity), cert.NotAfter)
	}
	if err := cert.VerifyHostname("localhost"); err != nil {
		t.Errorf("VerifyHostname: %v", err)
	}
}

func TestGenerateSelfSigned_NoHosts(t *testing.T) {
	if _, _, err := GenerateSelfSigned(nil, time.Now()); err == nil {
		t.Fatal("expected error for empty host list")
	}
}

func TestEnsureSelfSigned(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "tls", "server.crt")
	keyPath := filepath.Join(dir, "tls", "server.key")

	created, err := EnsureSelfSigned(certPath, keyPath, []string{"localhost"})
	if err != nil {
		t.Fatalf("EnsureSelfSigned: %v", err)
	}
	if !created {
		t.Fatal("expected files to be created")
	}
	if _, err := tls.LoadX509KeyPair(certPath, keyPath); err != nil {
		t.Fatalf("load key pair: %v", err)
	}
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected key mode 0600, got %v", info.Mode().Perm())
	}

	before, _ := os.ReadFile(certPath)
	created, err = EnsureSelfSigned(certPath, keyPath, []string{"localhost"})
	if err != nil {
		t.Fatalf("second EnsureSelfSigned: %v", err)
	}
	if created {
		t.Error("existing files must be kept")
	}
	after, _ := os.ReadFile(certPath)
	if string(before) != string(after) {
		t.Error("certificate was overwritten")
	}
}
