package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

// ErrInvalidToken возвращается для просроченных и некорректно подписанных токенов.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer выпускает и проверяет HS256-токены с идентичностью вызывающего.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer создаёт issuer; при ttl <= 0 используется значение по умолчанию.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue подписывает токен с id аккаунта и его ролью в claim authorities.
func (t *TokenIssuer) Issue(accountID, roleName string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":         accountID,
		"authorities": []string{roleName},
		"iat":         now.Unix(),
		"exp":         now.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Identify проверяет подпись и срок действия токена и собирает Identity.
func (t *TokenIssuer) Identify(tokenString string) (domain.Identity, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	roles := make([]string, 0, 1)
	if rawRoles, ok := claims["authorities"].([]interface{}); ok {
		for _, raw := range rawRoles {
			if role, ok := raw.(string); ok {
				roles = append(roles, role)
			}
		}
	}

	return domain.NewIdentity(subject, roles...), nil
}
