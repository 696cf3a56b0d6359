package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Email  string
	JTI    string
}

// AccessTokenClaims is the admin bearer token. UserID is the identity
// provider's subject and matches Store.OwnerID.
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
