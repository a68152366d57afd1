package certs

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(t *testing.T, cert tls.Certificate) *x509.Certificate {
	t.Helper()
	require.Len(t, cert.Certificate, 1)
	parsed, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return parsed
}

func TestFileManager_Certificate(t *testing.T) {
	tests := []struct {
		setup   func(t *testing.T, m *FileManager)
		name    string
		reissue bool
	}{
		{
			name:    "creates certificate in missing directory",
			setup:   func(*testing.T, *FileManager) {},
			reissue: true,
		},
		{
			name: "reuses a valid certificate",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				_, err := m.Certificate()
				require.NoError(t, err)
			},
		},
		{
			name: "replaces corrupt files",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				require.NoError(t, os.MkdirAll(m.certDir, 0o700))
				require.NoError(t, os.WriteFile(m.certFile, []byte("not a cert"), 0o600))
				require.NoError(t, os.WriteFile(m.keyFile, []byte("not a key"), 0o600))
			},
			reissue: true,
		},
		{
			name: "renews a certificate close to expiry",
			setup: func(t *testing.T, m *FileManager) {
				t.Helper()
				m.now = func() time.Time { return time.Now().Add(-validity + 24*time.Hour) }
				_, err := m.Certificate()
				require.NoError(t, err)
				m.now = time.Now
			},
			reissue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFileManager(filepath.Join(t.TempDir(), "certs"))
			tt.setup(t, m)

			var before []byte
			if data, err := os.ReadFile(m.certFile); err == nil {
				before = data
			}

			cert, err := m.Certificate()
			require.NoError(t, err)

			parsed := leaf(t, cert)
			assert.Equal(t, []string{Organization}, parsed.Subject.Organization)
			assert.NoError(t, parsed.VerifyHostname("localhost"))
			assert.NoError(t, parsed.VerifyHostname("127.0.0.1"))
			assert.True(t, parsed.NotAfter.After(time.Now().Add(renewBefore)))

			after, err := os.ReadFile(m.certFile)
			require.NoError(t, err)
			if tt.reissue {
				assert.NotEqual(t, before, after)
			} else {
				assert.Equal(t, before, after)
			}

			info, err := os.Stat(m.keyFile)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
		})
	}
}

type failingManager struct{ err error }

func (f failingManager) Certificate() (tls.Certificate, error) { return tls.Certificate{}, f.err }

func TestTLSConfig(t *testing.T) {
	m := NewFileManager(t.TempDir())
	cfg, err := TLSConfig(m)
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)

	_, err = TLSConfig(failingManager{err: os.ErrPermission})
	assert.ErrorIs(t, err, os.ErrPermission)
}
