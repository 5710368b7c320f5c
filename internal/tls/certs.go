// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

// Package tls generates development certificates and loads the HTTPS
// configuration of the auth API.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"

	"github.com/studyreview/studyreview/internal/xdg"
)

// File names written by SaveCertificates.
const (
	CACertFile     = "root-ca.crt"
	CAKeyFile      = "root-ca.key"
	ServerCertFile = "server.crt"
	ServerKeyFile  = "server.key"
)

// Validity periods of generated certificates.
const (
	CAValidity     = 10 * 365 * 24 * time.Hour
	ServerValidity = 365 * 24 * time.Hour
)

// DefaultHosts are the names a development server certificate covers when none are given.
var DefaultHosts = []string{"localhost", "127.0.0.1", "::1"}

// CA holds a certificate authority certificate and private key.
type CA struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// ServerCert holds a server certificate and private key.
type ServerCert struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// GenerateCA creates a self-signed root CA for development use.
func GenerateCA() (*CA, error) {
	key, serial, err := newKeyAndSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"StudyReview"},
			CommonName:   "StudyReview Development CA",
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(CAValidity),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
	}

	cert, err := createCertificate(template, template, &key.PublicKey, key)
	if err != nil {
		return nil, oops.Code("TLS_CA_CREATE_FAILED").Wrap(err)
	}
	return &CA{Certificate: cert, PrivateKey: key}, nil
}

// GenerateServerCert creates a server certificate signed by ca that is valid for hosts.
// Entries that parse as IP addresses become IP SANs, the rest DNS SANs.
func GenerateServerCert(ca *CA, hosts []string) (*ServerCert, error) {
	if ca == nil {
		return nil, oops.Code("TLS_CA_REQUIRED").Errorf("a CA is required to sign the server certificate")
	}
	if len(hosts) == 0 {
		hosts = DefaultHosts
	}

	key, serial, err := newKeyAndSerial()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"StudyReview"},
			CommonName:   hosts[0],
		},
		NotBefore:   now.Add(-time.Minute),
		NotAfter:    now.Add(ServerValidity),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, host := range hosts {
		if ip := net.ParseIP(host); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, host)
		}
	}

	cert, err := createCertificate(template, ca.Certificate, &key.PublicKey, ca.PrivateKey)
	if err != nil {
		return nil, oops.Code("TLS_SERVER_CERT_CREATE_FAILED").With("hosts", hosts).Wrap(err)
	}
	return &ServerCert{Certificate: cert, PrivateKey: key}, nil
}

func newKeyAndSerial() (*ecdsa.PrivateKey, *big.Int, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, oops.Code("TLS_KEY_GENERATE_FAILED").Wrap(err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, oops.Code("TLS_KEY_GENERATE_FAILED").With("operation", "generate serial").Wrap(err)
	}
	return key, serial, nil
}

func createCertificate(template, parent *x509.Certificate, pub *ecdsa.PublicKey, signer *ecdsa.PrivateKey) (*x509.Certificate, error) {
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signer)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}

// SaveCertificates writes the CA and, when non-nil, the server certificate to dir.
// Keys are written with mode 0600 and dir is created with mode 0700.
func SaveCertificates(dir string, ca *CA, server *ServerCert) error {
	if err := xdg.EnsureDir(dir); err != nil {
		return err
	}

	if err := saveCert(filepath.Join(dir, CACertFile), ca.Certificate); err != nil {
		return err
	}
	if err := saveKey(filepath.Join(dir, CAKeyFile), ca.PrivateKey); err != nil {
		return err
	}

	if server != nil {
		if err := saveCert(filepath.Join(dir, ServerCertFile), server.Certificate); err != nil {
			return err
		}
		if err := saveKey(filepath.Join(dir, ServerKeyFile), server.PrivateKey); err != nil {
			return err
		}
	}
	return nil
}

// LoadCA loads a CA previously written by SaveCertificates.
func LoadCA(dir string) (*CA, error) {
	cert, err := readCert(filepath.Join(dir, CACertFile))
	if err != nil {
		return nil, err
	}

	keyPath := filepath.Clean(filepath.Join(dir, CAKeyFile))
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, oops.Code("TLS_READ_FAILED").With("file", keyPath).Wrap(err)
	}
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, oops.Code("TLS_PEM_INVALID").With("file", keyPath).Errorf("no PEM block found")
	}
	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, oops.Code("TLS_PEM_INVALID").With("file", keyPath).Wrap(err)
	}

	return &CA{Certificate: cert, PrivateKey: key}, nil
}

// EnsureDevCertificates issues a fresh server certificate for hosts in dir.
// An existing CA in dir is reused so clients that already trust it keep working.
// It returns the server certificate and key paths.
func EnsureDevCertificates(dir string, hosts []string) (certFile, keyFile string, err error) {
	ca, err := LoadCA(dir)
	if err != nil {
		if _, statErr := os.Stat(filepath.Join(dir, CACertFile)); statErr == nil {
			// A CA that exists but cannot be read is not silently replaced.
			return "", "", err
		}
		if ca, err = GenerateCA(); err != nil {
			return "", "", err
		}
	}

	server, err := GenerateServerCert(ca, hosts)
	if err != nil {
		return "", "", err
	}
	if err := SaveCertificates(dir, ca, server); err != nil {
		return "", "", err
	}
	return filepath.Join(dir, ServerCertFile), filepath.Join(dir, ServerKeyFile), nil
}

// LoadServerTLS loads a certificate and key pair into a server TLS configuration
// that requires TLS 1.2 or later.
func LoadServerTLS(certFile, keyFile string) (*tls.Config, error) {
	pair, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, oops.Code("TLS_LOAD_FAILED").
			With("cert_file", certFile).
			With("key_file", keyFile).
			Wrap(err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func readCert(path string) (*x509.Certificate, error) {
	path = filepath.Clean(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Code("TLS_READ_FAILED").With("file", path).Wrap(err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, oops.Code("TLS_PEM_INVALID").With("file", path).Errorf("no PEM block found")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, oops.Code("TLS_PEM_INVALID").With("file", path).Wrap(err)
	}
	return cert, nil
}

func saveCert(path string, cert *x509.Certificate) error {
	return writePEM(path, &pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
}

func saveKey(path string, key *ecdsa.PrivateKey) error {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return oops.Code("TLS_WRITE_FAILED").With("file", path).Wrap(err)
	}
	return writePEM(path, &pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
}

func writePEM(path string, block *pem.Block) error {
	if err := os.WriteFile(filepath.Clean(path), pem.EncodeToMemory(block), 0o600); err != nil {
		return oops.Code("TLS_WRITE_FAILED").With("file", path).Wrap(err)
	}
	return nil
}
