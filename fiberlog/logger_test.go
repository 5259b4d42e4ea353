package fiberlog

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run(`request log check`, func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		app := fiber.New()
		app.Use(New(Config{Logger: logger, Tags: []string{TagMethod, TagPath, TagStatus, TagBody, "unknown"}}))
		app.Post("/ok", func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})
		app.Post("/fail", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusBadRequest)
		})

		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/ok", strings.NewReader(strings.Repeat("a", 5000))))
		require.Nil(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		entry := hook.LastEntry()
		require.Equal(t, logrus.InfoLevel, entry.Level)
		require.Equal(t, "/ok", entry.Data[TagPath])
		require.Equal(t, fiber.StatusOK, entry.Data[TagStatus])
		require.Len(t, []rune(entry.Data[TagBody].(string)), maxBodyLog)
		_, ok := entry.Data["unknown"]
		require.False(t, ok)

		_, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/fail", nil))
		require.Nil(t, err)
		require.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	})
}
