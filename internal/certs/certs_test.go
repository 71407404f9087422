package certs

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafOf(t *testing.T, cert tls.Certificate) *x509.Certificate {
	t.Helper()
	require.Len(t, cert.Certificate, 1)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf
}

func TestGetOrCreateCertificate_Generates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	m := NewFileManager(dir, "recon.internal", "10.0.0.5")

	cert, err := m.GetOrCreateCertificate()
	require.NoError(t, err)

	leaf := leafOf(t, cert)
	assert.Equal(t, Organization, leaf.Subject.Organization[0])
	assert.Contains(t, leaf.DNSNames, "localhost")
	assert.Contains(t, leaf.DNSNames, "recon.internal")
	assert.True(t, leaf.IPAddresses[len(leaf.IPAddresses)-1].Equal(net.ParseIP("10.0.0.5")))
	assert.NoError(t, leaf.VerifyHostname("localhost"))
	assert.True(t, leaf.NotAfter.After(time.Now().Add(364*24*time.Hour)))

	info, err := os.Stat(m.keyFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestGetOrCreateCertificate_Reuses(t *testing.T) {
	m := NewFileManager(t.TempDir())

	first, err := m.GetOrCreateCertificate()
	require.NoError(t, err)
	second, err := m.GetOrCreateCertificate()
	require.NoError(t, err)

	assert.Equal(t, leafOf(t, first).SerialNumber, leafOf(t, second).SerialNumber)
}

func TestGetOrCreateCertificate_Regenerates(t *testing.T) {
	tests := []struct {
		setup func(t *testing.T, m *FileManager)
		name  string
	}{
		{
			name: "garbage files",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				require.NoError(t, os.WriteFile(m.certFile, []byte("not a cert"), 0o600))
				require.NoError(t, os.WriteFile(m.keyFile, []byte("not a key"), 0o600))
			},
		},
		{
			name: "near expiry",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				m.now = func() time.Time { return time.Now().Add(-Validity + 24*time.Hour) }
				_, err := m.GetOrCreateCertificate()
				require.NoError(t, err)
				m.now = time.Now
			},
		},
		{
			name: "new host requested",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				_, err := NewFileManager(m.certDir).GetOrCreateCertificate()
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFileManager(t.TempDir(), "recon.internal")
			tt.setup(t, m)

			cert, err := m.GetOrCreateCertificate()
			require.NoError(t, err)
			leaf := leafOf(t, cert)
			assert.NoError(t, leaf.VerifyHostname("recon.internal"))
			assert.True(t, leaf.NotAfter.After(time.Now().Add(RenewBefore)))
		})
	}
}

func TestCertificateExists(t *testing.T) {
	m := NewFileManager(t.TempDir())

	exists, err := m.CertificateExists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, os.WriteFile(m.certFile, []byte("x"), 0o600))
	exists, err = m.CertificateExists()
	require.NoError(t, err)
	assert.False(t, exists, "key file still missing")

	require.NoError(t, os.WriteFile(m.keyFile, []byte("x"), 0o600))
	exists, err = m.CertificateExists()
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTLSConfig(t *testing.T) {
	m := NewFileManager(t.TempDir())

	cfg, err := m.TLSConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	assert.FileExists(t, m.CertFile())
}
