// Package authn resolves the calling actor from an access token minted by
// the upstream identity provider. Inventory Core never issues tokens
// itself — login and token refresh are a different service's job; this
// package only validates and extracts.
package authn

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/inventorycore/inventory-core/pkg/actor"
	"github.com/inventorycore/inventory-core/pkg/config"
	"github.com/inventorycore/inventory-core/pkg/errors"
)

// Claims is the subset of the access token's claims Inventory Core reads.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// Manager validates access tokens against the shared JWT secret.
type Manager struct {
	config *config.JWTConfig
}

func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// ValidateAccessToken parses and validates tokenString, returning its claims.
func (m *Manager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		if err.Error() == "token has invalid claims: token is expired" {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.TokenInvalid()
	}
	return claims, nil
}

// Resolve implements httputil.ActorResolver: it validates the token and
// maps its claims onto the actor the rest of the request carries forward.
func (m *Manager) Resolve(tokenString string) (*actor.Actor, error) {
	claims, err := m.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &actor.Actor{
		ID:        claims.UserID,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		Email:     claims.Email,
		RoleName:  claims.Role,
	}, nil
}
