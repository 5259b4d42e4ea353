package authutils

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var ErrBadCredentials = errors.New("неверный логин или пароль")

// GetToken токен оператора приемной комиссии
func GetToken(login, secret string, expireIn time.Duration, now time.Time) (tokenString string, err error) {
	if secret == "" {
		return "", errors.New("не задан ключ подписи токенов")
	}
	claims := jwt.MapClaims{
		"sub": login,
		"exp": now.Add(expireIn).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CheckCredentials сравнение с учетной записью оператора из конфигурации
func CheckCredentials(login, password, expectedLogin, expectedPassword string) error {
	if expectedPassword == "" {
		return ErrBadCredentials
	}
	loginOK := subtle.ConstantTimeCompare([]byte(login), []byte(expectedLogin)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(expectedPassword)) == 1
	if !loginOK || !passwordOK {
		return ErrBadCredentials
	}
	return nil
}

func GetClaims(ctx *fiber.Ctx) jwt.MapClaims {
	token, ok := ctx.Locals("user").(*jwt.Token)
	if !ok {
		return jwt.MapClaims{}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return jwt.MapClaims{}
	}
	return claims
}

func GetOperator(ctx *fiber.Ctx) string {
	login, _ := GetClaims(ctx)["sub"].(string)
	return login
}
