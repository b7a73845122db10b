package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm names as they appear in token headers and JWKs.
const (
	HS256 = "HS256"
	RS256 = "RS256"
)

const minRSABits = 2048

// KeyPair is an RSA signing key published under KeyID.
type KeyPair struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// JWKS is the document served on the well-known JWKS route.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK is the public half of an RSA signing key.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// GenerateRSAKeyPair creates a fresh key pair. Sizes below 2048 bits are raised to 2048.
func GenerateRSAKeyPair(keyID string, bits int) (*KeyPair, error) {
	bits = max(bits, minRSABits)
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("[GenerateRSAKeyPair] %w", err)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey}, nil
}

// LoadKeyPairFromPEM reads a PKCS#1 or PKCS#8 encoded RSA private key of at least 2048 bits.
func LoadKeyPairFromPEM(keyID, privateKeyPEM string) (*KeyPair, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, errors.New("[LoadKeyPairFromPEM] no PEM block found")
	}

	privateKey, err := parseRSAPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("[LoadKeyPairFromPEM] %w", err)
	}
	if bits := privateKey.N.BitLen(); bits < minRSABits {
		return nil, fmt.Errorf("[LoadKeyPairFromPEM] key is %d bits, need at least %d", bits, minRSABits)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey}, nil
}

func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if privateKey, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return privateKey, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, err
	}
	privateKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%T is not an RSA key", parsed)
	}
	return privateKey, nil
}

func (kp *KeyPair) PublicKey() *rsa.PublicKey {
	return &kp.PrivateKey.PublicKey
}

func (kp *KeyPair) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodRS256
}

// ExportPrivateKeyPEM encodes the key as PKCS#1, the format JWT_PRIVATE_KEY accepts.
func (kp *KeyPair) ExportPrivateKeyPEM() (string, error) {
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(kp.PrivateKey)}
	return string(pem.EncodeToMemory(block)), nil
}

// ExportPublicKeyPEM encodes the public key as PKIX for services that verify tokens offline.
func (kp *KeyPair) ExportPublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(kp.PublicKey())
	if err != nil {
		return "", fmt.Errorf("[ExportPublicKeyPEM] %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

func (kp *KeyPair) ToJWK() JWK {
	pub := kp.PublicKey()
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kp.KeyID,
		Alg: RS256,
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
