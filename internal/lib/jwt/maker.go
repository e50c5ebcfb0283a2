// Package jwt реализует генерацию и парсинг JWT токенов администратора.
//
// Токен связывает имя учетной записи и telegram-идентификатор администратора,
// под которым выполняются операции decide/extend/end.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Maker создает и проверяет административные токены.
type Maker struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewMaker возвращает Maker с заданным секретом и временем жизни токена.
func NewMaker(secretKey string, tokenTTL time.Duration) *Maker {
	return &Maker{secretKey: secretKey, tokenTTL: tokenTTL}
}

// GenerateToken создает JWT токен с заданными username и adminID,
// подписывая его секретным ключом. Время жизни токена определяется tokenTTL.
func (j *Maker) GenerateToken(username string, adminID int64) (string, error) {
	claims := AdminClaims{
		Username: username,
		AdminID:  adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает AdminClaims с данными, если токен корректен.
func (j *Maker) ParseToken(tokenStr string) (*AdminClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &AdminClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
