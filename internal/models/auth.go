package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the identity token payload issued by the external identity service.
type JWTClaims struct {
	UserID   int64    `json:"user_id"`
	Role     UserRole `json:"role"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
