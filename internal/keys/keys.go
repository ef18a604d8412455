// Package keys generates the client keypair used to register an app
// installation with the remote API.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// Bits is the RSA modulus size used for installation keys.
const Bits = 2048

// KeyPair holds an RSA installation key.
type KeyPair struct {
	private *rsa.PrivateKey
}

// Generate creates a new RSA keypair with public exponent 65537.
func Generate() (*KeyPair, error) {
	key, err := rsa.GenerateKey(rand.Reader, Bits)
	if err != nil {
		return nil, fmt.Errorf("generating rsa key: %w", err)
	}
	return &KeyPair{private: key}, nil
}

// Public returns the public half of the keypair.
func (k *KeyPair) Public() *rsa.PublicKey {
	return &k.private.PublicKey
}

// PublicKeyPEM encodes the public key as a PEM "PUBLIC KEY" block
// (SubjectPublicKeyInfo).
func (k *KeyPair) PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(k.Public())
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return string(pem.EncodeToMemory(block)), nil
}
