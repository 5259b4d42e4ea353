package apiv1

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
	"testing"

	"admission-backend/config"
	webhooksapi "admission-backend/controllers/v1/webhooks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

var pathParam = regexp.MustCompile(`:(\w+)`)

func registeredRoutes(prefix string, app *fiber.App) map[string]bool {
	result := map[string]bool{}
	for _, route := range app.GetRoutes(true) {
		if route.Method == fiber.MethodHead {
			continue
		}
		path := prefix + strings.TrimSuffix(route.Path, "/")
		path = pathParam.ReplaceAllString(path, "{$1}")
		result[strings.ToLower(route.Method)+" "+path] = true
	}
	return result
}

func TestSwaggerDoc(t *testing.T) {
	config.Conf = &config.Configuration{}
	config.Conf.Auth.JWTSecret = "secret"

	data, err := os.ReadFile("../../docs/swagger.json")
	require.NoError(t, err)
	doc := struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}{}
	require.NoError(t, json.Unmarshal(data, &doc))
	documented := map[string]bool{}
	for path, methods := range doc.Paths {
		for method := range methods {
			documented[method+" "+path] = true
		}
	}

	t.Run(`all routes documented check`, func(t *testing.T) {
		auth := fiber.New()
		InitAuthApiRouters(auth)
		webhooks := fiber.New()
		webhooksapi.InitLimeSurveyWebhookApiRouters(webhooks)
		operator := fiber.New()
		InitServerApiRouters(operator)
		InitTemplateApiRouters(operator)
		InitImportBatchApiRouters(operator)
		InitCandidateApiRouters(operator)
		InitStageApiRouters(operator)

		registered := map[string]bool{}
		for _, routes := range []map[string]bool{
			registeredRoutes("/api/v1", auth),
			registeredRoutes("/api/v1/webhooks", webhooks),
			registeredRoutes("/api/v1/admission", operator),
		} {
			for route := range routes {
				registered[route] = true
			}
		}
		require.NotEmpty(t, registered)
		for route := range registered {
			require.True(t, documented[route], "маршрут %s не описан", route)
		}
		for route := range documented {
			require.True(t, registered[route], "описан несуществующий маршрут %s", route)
		}
	})
}
