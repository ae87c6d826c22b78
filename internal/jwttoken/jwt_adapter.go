package jwttoken

import (
	authmw "medgate/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *Claims) *authmw.TokenClaims {
	return &authmw.TokenClaims{SessionID: claims.SessionID}
}

// JWTServiceAdapter satisfies authmw.TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
