package keys

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.MapClaims) (string, error)

	// GetVerificationKey is used as the jwt.Keyfunc when parsing tokens
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// JWKSProvider is implemented by signers that can publish their public keys.
type JWKSProvider interface {
	GetJWKS() (*JWKS, error)
}

// minHMACSecretLength matches the HS256 output size.
const minHMACSecretLength = 32

// NewSigner returns an RS256 signer when a private key PEM is configured, otherwise an HS256 signer.
func NewSigner(secret, privateKeyPEM, keyID string) (Signer, error) {
	if privateKeyPEM != "" {
		keyPair, err := LoadKeyPairFromPEM(keyID, privateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("[NewSigner] %w", err)
		}
		return NewKeyPairSigner(keyPair), nil
	}
	if secret == "" {
		return nil, errors.New("[NewSigner] a signing secret or private key is required")
	}
	if len(secret) < minHMACSecretLength {
		return nil, fmt.Errorf("[NewSigner] signing secret must be at least %d bytes", minHMACSecretLength)
	}
	return NewHMACSigner(secret), nil
}

// HMACSigner implements Signer using symmetric HMAC-SHA256
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{
		secret: []byte(secret),
	}
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("[HMACSigner.Sign] %w", err)
	}
	return signedToken, nil
}

func (h *HMACSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACSigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

// KeyPairSigner implements Signer using RSA with RS256
type KeyPairSigner struct {
	keyPair *KeyPair
}

var (
	_ Signer       = (*HMACSigner)(nil)
	_ Signer       = (*KeyPairSigner)(nil)
	_ JWKSProvider = (*KeyPairSigner)(nil)
)

func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{
		keyPair: keyPair,
	}
}

func (a *KeyPairSigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(a.keyPair.GetSigningMethod(), claims)
	token.Header["kid"] = a.keyPair.KeyID

	signedToken, err := token.SignedString(a.keyPair.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("[KeyPairSigner.Sign] %w", err)
	}
	return signedToken, nil
}

func (a *KeyPairSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	if kid, ok := token.Header["kid"].(string); ok && kid != a.keyPair.KeyID {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return a.keyPair.PublicKey(), nil
}

func (a *KeyPairSigner) GetSigningMethod() jwt.SigningMethod {
	return a.keyPair.GetSigningMethod()
}

// GetJWKS publishes the single active key.
func (a *KeyPairSigner) GetJWKS() (*JWKS, error) {
	return &JWKS{Keys: []JWK{a.keyPair.ToJWK()}}, nil
}
