package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the bearer identity attached to authenticated requests. The
// user id keys the email whitelist used when claiming pending origs.
type JWTClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}
