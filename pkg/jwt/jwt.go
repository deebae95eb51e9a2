package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// Claims identifies the caller. ID is the registry user id.
type Claims struct {
	ID string `json:"id"`
	gojwt.RegisteredClaims
}

// Service signs and validates tokens with either a shared secret (HS256) or
// an RSA key pair (RS256)
type Service struct {
	secret     []byte
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	expiration time.Duration
}

// Config holds JWT service configuration. Secret takes precedence over the
// key paths. A zero ExpirationMins issues tokens that never expire.
type Config struct {
	Secret         string
	PrivateKeyPath string
	PublicKeyPath  string
	Issuer         string
	ExpirationMins int
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	s := &Service{
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
	}

	if cfg.Secret != "" {
		s.secret = []byte(cfg.Secret)
		return s, nil
	}

	if cfg.PrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		key, err := gojwt.ParseRSAPrivateKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load private key: %w", err)
		}
		s.privateKey = key
		s.publicKey = &key.PublicKey
	}

	// Public key alone allows validation-only deployments
	if cfg.PublicKeyPath != "" && s.publicKey == nil {
		data, err := os.ReadFile(cfg.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
		key, err := gojwt.ParseRSAPublicKeyFromPEM(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load public key: %w", err)
		}
		s.publicKey = key
	}

	if s.publicKey == nil {
		return nil, fmt.Errorf("%w: no secret or key configured", ErrInvalidKey)
	}
	return s, nil
}

// NewTestService creates an HS256 service for tests
func NewTestService(secret, issuer string, expiration time.Duration) *Service {
	return &Service{secret: []byte(secret), issuer: issuer, expiration: expiration}
}

// GenerateKeyPair generates a new RSA key pair and saves it as PEM files
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	privateKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	if err := os.WriteFile(privateKeyPath, privateKeyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	publicKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return fmt.Errorf("failed to marshal public key: %w", err)
	}
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyBytes,
	})
	if err := os.WriteFile(publicKeyPath, publicKeyPEM, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	return nil
}

// GenerateToken signs a token for the given user id
func (s *Service) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		ID: userID,
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
		},
	}
	if s.expiration > 0 {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(s.expiration))
	}
	return s.Sign(claims)
}

// Sign signs arbitrary claims as they are
func (s *Service) Sign(claims Claims) (string, error) {
	switch {
	case s.secret != nil:
		return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
	case s.privateKey != nil:
		return gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	default:
		return "", ErrInvalidKey
	}
}

// ValidateToken verifies the signature and time claims and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	opts := []gojwt.ParserOption{gojwt.WithIssuedAt()}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}
	if s.secret != nil {
		opts = append(opts, gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	} else {
		opts = append(opts, gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}))
	}

	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetExpiration returns the token expiration duration
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

func (s *Service) keyFunc(*gojwt.Token) (interface{}, error) {
	if s.secret != nil {
		return s.secret, nil
	}
	if s.publicKey != nil {
		return s.publicKey, nil
	}
	return nil, ErrInvalidKey
}

func classify(err error) error {
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, gojwt.ErrTokenNotValidYet), errors.Is(err, gojwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, ErrInvalidKey):
		return ErrInvalidKey
	default:
		return ErrInvalidToken
	}
}
