package tlsutil

import (
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDev(t *testing.T, hosts ...string) string {
	t.Helper()
	certs, err := NewDevCertificates(hosts)
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "certs")
	require.NoError(t, certs.WriteDir(dir))
	return dir
}

func TestNewDevCertificates(t *testing.T) {
	certs, err := NewDevCertificates([]string{"scamshield.local", "10.0.0.7"})
	require.NoError(t, err)

	caBlock, _ := pem.Decode(certs.CACert)
	require.NotNil(t, caBlock)
	ca, err := x509.ParseCertificate(caBlock.Bytes)
	require.NoError(t, err)
	assert.True(t, ca.IsCA)

	srvBlock, _ := pem.Decode(certs.ServerCert)
	require.NotNil(t, srvBlock)
	srv, err := x509.ParseCertificate(srvBlock.Bytes)
	require.NoError(t, err)

	assert.Equal(t, "scamshield.local", srv.Subject.CommonName)
	assert.Equal(t, []string{"scamshield.local"}, srv.DNSNames)
	require.Len(t, srv.IPAddresses, 1)
	assert.Equal(t, "10.0.0.7", srv.IPAddresses[0].String())
	assert.NotEqual(t, ca.SerialNumber, srv.SerialNumber)

	pool := x509.NewCertPool()
	pool.AddCert(ca)
	_, err = srv.Verify(x509.VerifyOptions{DNSName: "scamshield.local", Roots: pool})
	assert.NoError(t, err)
}

func TestNewDevCertificates_RequiresHost(t *testing.T) {
	_, err := NewDevCertificates(nil)
	assert.Error(t, err)
}

func TestDevCertificates_WriteDir(t *testing.T) {
	dir := writeDev(t, "localhost")

	for _, name := range []string{CACertFile, CAKeyFile, ServerCertFile, ServerKeyFile} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), name)
	}
}

func TestServerCredentials(t *testing.T) {
	dir := writeDev(t, "localhost")

	creds, err := ServerCredentials(filepath.Join(dir, ServerCertFile), filepath.Join(dir, ServerKeyFile))
	require.NoError(t, err)
	assert.Equal(t, "tls", creds.Info().SecurityProtocol)

	_, err = ServerCredentials(filepath.Join(dir, "missing.pem"), filepath.Join(dir, ServerKeyFile))
	assert.ErrorContains(t, err, "loading key pair")

	// A key that does not match the certificate.
	_, err = ServerCredentials(filepath.Join(dir, ServerCertFile), filepath.Join(dir, CAKeyFile))
	assert.Error(t, err)
}

func TestClientCredentials(t *testing.T) {
	dir := writeDev(t, "localhost")

	_, err := ClientCredentials(ClientOptions{CAFile: filepath.Join(dir, CACertFile)})
	require.NoError(t, err)

	_, err = ClientCredentials(ClientOptions{})
	require.NoError(t, err)

	_, err = ClientCredentials(ClientOptions{CAFile: filepath.Join(dir, "absent.pem")})
	assert.ErrorContains(t, err, "CA file")

	bogus := filepath.Join(dir, "bogus.pem")
	require.NoError(t, os.WriteFile(bogus, []byte("not a certificate"), 0o600))
	_, err = ClientCredentials(ClientOptions{CAFile: bogus})
	assert.ErrorContains(t, err, "no PEM certificates")
}
