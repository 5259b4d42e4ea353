package authutils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGetToken(t *testing.T) {
	t.Run(`token check`, func(t *testing.T) {
		now := time.Now()
		tokenString, err := GetToken("admin", "secret", time.Hour, now)
		require.Nil(t, err)

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte("secret"), nil
		})
		require.Nil(t, err)
		require.True(t, token.Valid)
		require.Equal(t, "admin", claims["sub"])

		_, err = GetToken("admin", "", time.Hour, now)
		require.Error(t, err)
	})

	t.Run(`CheckCredentials check`, func(t *testing.T) {
		require.Nil(t, CheckCredentials("admin", "pwd", "admin", "pwd"))
		require.ErrorIs(t, CheckCredentials("admin", "bad", "admin", "pwd"), ErrBadCredentials)
		require.ErrorIs(t, CheckCredentials("root", "pwd", "admin", "pwd"), ErrBadCredentials)
		// без пароля вход закрыт
		require.ErrorIs(t, CheckCredentials("admin", "", "admin", ""), ErrBadCredentials)
	})
}
