package middleware

import (
	"fmt"
	"strconv"

	"github.com/Dosada05/live-scoring/models"
	"github.com/golang-jwt/jwt/v4"
)

// Определяем константы для имен JWT claims
const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

func identityFromClaims(claims jwt.MapClaims) (models.Identity, error) {
	userID, err := userIDFromClaims(claims)
	if err != nil {
		return models.Identity{}, err
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return models.Identity{}, fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	roleStr, ok := roleClaim.(string)
	if !ok {
		return models.Identity{}, fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}
	role := models.UserRole(roleStr)
	if !role.IsValid() {
		return models.Identity{}, fmt.Errorf("invalid role value in claim: %q", roleStr)
	}

	return models.Identity{UserID: userID, Role: role}, nil
}

// userIDFromClaims принимает строковый id и целочисленный (JSON-число),
// который выдают старые токены.
func userIDFromClaims(claims jwt.MapClaims) (string, error) {
	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	switch v := userIDClaim.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("empty '%s' claim", jwtClaimUserID)
		}
		return v, nil
	case float64:
		if v != float64(int64(v)) || v <= 0 {
			return "", fmt.Errorf("invalid user ID value in '%s' claim: %v", jwtClaimUserID, v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	}
	return "", fmt.Errorf("invalid type for '%s' claim: expected string or number, got %T", jwtClaimUserID, userIDClaim)
}
