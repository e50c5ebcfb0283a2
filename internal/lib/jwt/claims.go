package jwt

import "github.com/golang-jwt/jwt/v5"

// AdminClaims описывает данные административного токена, хранящиеся в JWT.
// AdminID — telegram-идентификатор администратора, которым подписываются
// решения по платежам.
type AdminClaims struct {
	Username             string `json:"username"`
	AdminID              int64  `json:"admin_id"`
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt и пр.)
}
