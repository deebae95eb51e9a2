// Package jwt issues and validates API tokens.
//
// A token carries the caller's registry user id in the "id" claim:
//
//	svc, err := jwt.NewService(jwt.Config{Secret: os.Getenv("JWT_SECRET")})
//	token, err := svc.GenerateToken("u1")
//
//	claims, err := svc.ValidateToken(token)
//	userID := claims.ID
//
// Shared-secret (HS256) signing is the default. Configure PrivateKeyPath and
// PublicKeyPath instead to sign with RS256; GenerateKeyPair writes a fresh
// pair in PEM form.
package jwt
