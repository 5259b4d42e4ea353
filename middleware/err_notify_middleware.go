package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	apimodels "admission-backend/models/api"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type errNotification struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Method  string `json:"method"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrNotify отправляет сведения о внутренних ошибках api на addr
func ErrNotify(addr string) fiber.Handler {
	client := &http.Client{Timeout: 5 * time.Second}
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if addr == "" {
			return err
		}
		status := c.Response().StatusCode()
		if status < fiber.StatusInternalServerError {
			return err
		}
		var resp apimodels.Response
		if unmErr := json.Unmarshal(c.Response().Body(), &resp); unmErr != nil {
			log.WithError(unmErr).Warn("ошибка разбора ответа api для уведомления")
		}
		notification := errNotification{
			Status:  status,
			Code:    resp.Code,
			Method:  c.Method(),
			Path:    c.OriginalURL(),
			Message: resp.Message,
		}
		if r := c.Route(); r != nil {
			notification.Path = r.Path
		}
		go sendNotification(client, addr, notification)
		return err
	}
}

func sendNotification(client *http.Client, addr string, notification errNotification) {
	body, err := json.Marshal(notification)
	if err != nil {
		return
	}
	resp, err := client.Post(addr, fiber.MIMEApplicationJSON, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Warn("ошибка отправки уведомления об ошибке api")
		return
	}
	_ = resp.Body.Close()
}
