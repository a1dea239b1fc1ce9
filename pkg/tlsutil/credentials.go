// Package tlsutil builds gRPC transport credentials for the scamshield service
// and its command-line client, and issues development certificates.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc/credentials"
)

const minTLSVersion = tls.VersionTLS12

// ErrExpired is returned when a server certificate is outside its validity window.
var ErrExpired = errors.New("tlsutil: certificate not valid at this time")

// ServerCredentials loads a PEM key pair and returns credentials for a gRPC server.
// A leaf that has expired or is not yet valid is rejected at load time rather than
// on the first handshake.
func ServerCredentials(certFile, keyFile string) (credentials.TransportCredentials, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: loading key pair %s: %w", certFile, err)
	}

	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("tlsutil: parsing %s: %w", certFile, err)
	}
	if now := time.Now(); now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return nil, fmt.Errorf("%w: %s valid %s to %s", ErrExpired, certFile,
			leaf.NotBefore.Format(time.RFC3339), leaf.NotAfter.Format(time.RFC3339))
	}
	pair.Leaf = leaf

	return credentials.NewTLS(&tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   minTLSVersion,
	}), nil
}

// ClientOptions controls how the client verifies the service.
type ClientOptions struct {
	// CAFile is a PEM bundle of trusted roots. The system pool is used when empty.
	CAFile string
	// ServerName overrides the name checked against the server certificate.
	ServerName string
	// InsecureSkipVerify disables verification. Development only.
	InsecureSkipVerify bool
}

// ClientCredentials returns credentials for dialing a TLS-enabled service.
func ClientCredentials(opts ClientOptions) (credentials.TransportCredentials, error) {
	cfg := &tls.Config{
		MinVersion:         minTLSVersion,
		ServerName:         opts.ServerName,
		InsecureSkipVerify: opts.InsecureSkipVerify, //nolint:gosec // opt-in from the CLI flag
	}
	if opts.CAFile != "" {
		pool, err := certPoolFromFile(opts.CAFile)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	return credentials.NewTLS(cfg), nil
}

func certPoolFromFile(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: reading CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("tlsutil: no PEM certificates in CA file %s", path)
	}
	return pool, nil
}
