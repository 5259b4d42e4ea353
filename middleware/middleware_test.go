package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apimodels "admission-backend/models/api"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestWithBodyLimit(t *testing.T) {
	t.Run(`limit check`, func(t *testing.T) {
		app := fiber.New()
		app.Use(WithBodyLimit(10, "/webhooks"))
		handler := func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		}
		app.Post("/templates", handler)
		app.Post("/webhooks/limesurvey", handler)

		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/templates", strings.NewReader("small")))
		require.Nil(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/templates", strings.NewReader(strings.Repeat("a", 100))))
		require.Nil(t, err)
		require.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)

		resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/webhooks/limesurvey", strings.NewReader(strings.Repeat("a", 100))))
		require.Nil(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	})
}

func TestErrNotify(t *testing.T) {
	t.Run(`notify check`, func(t *testing.T) {
		received := make(chan errNotification, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var notification errNotification
			_ = json.NewDecoder(r.Body).Decode(&notification)
			received <- notification
		}))
		defer server.Close()

		app := fiber.New()
		app.Use(ErrNotify(server.URL))
		app.Get("/candidates/:id", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusInternalServerError).JSON(apimodels.NewErrorWithCode("internal_error", "ошибка получения кандидата"))
		})
		app.Get("/ok", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
		require.Nil(t, err)
		_, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/candidates/42", nil))
		require.Nil(t, err)

		select {
		case notification := <-received:
			require.Equal(t, fiber.StatusInternalServerError, notification.Status)
			require.Equal(t, "internal_error", notification.Code)
			require.Equal(t, "/candidates/:id", notification.Path)
		case <-time.After(2 * time.Second):
			t.Fatal("уведомление не получено")
		}
	})
}
