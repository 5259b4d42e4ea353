package webhooksapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"admission-backend/lib/ingestion"
	apimodels "admission-backend/models/api"
	ingestionapimodels "admission-backend/models/api/ingestion"
	dbmodels "admission-backend/models/db"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	ingestion.Provider
	token   string
	request ingestionapimodels.WebhookSubmission
}

func (f *fakeGateway) Submit(ctx context.Context, token string, request ingestionapimodels.WebhookSubmission) (*ingestion.SubmitResult, error) {
	f.token = token
	f.request = request
	if token != "secret" {
		return nil, ingestion.UnauthorizedError{SurveyID: request.GetSurveyID()}
	}
	candidate := &dbmodels.Candidate{}
	candidate.ID = "candidate-1"
	return &ingestion.SubmitResult{Candidate: candidate, Created: true}, nil
}

func send(t *testing.T, app *fiber.App, token, body string) (int, apimodels.Response) {
	req := httptest.NewRequest(fiber.MethodPost, "/limesurvey/submission", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(HeaderWebhookToken, token)
	}
	resp, err := app.Test(req)
	require.Nil(t, err)
	var result apimodels.Response
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp.StatusCode, result
}

func TestSubmission(t *testing.T) {
	gateway := &fakeGateway{}
	ingestion.Instance = gateway
	app := fiber.New()
	InitLimeSurveyWebhookApiRouters(app)

	t.Run(`success check`, func(t *testing.T) {
		status, resp := send(t, app, "secret", `{"survey_id": 123456, "response_id": "17", "response_data": {"G01Q02": "Dupont"}}`)
		require.Equal(t, fiber.StatusOK, status)
		require.Equal(t, "success", resp.Status)
		data := resp.Data.(map[string]any)
		require.Equal(t, "candidate-1", data["candidate_id"])
		require.Equal(t, true, data["created"])
		require.Equal(t, "123456", gateway.request.GetSurveyID())
	})

	t.Run(`unauthorized check`, func(t *testing.T) {
		status, resp := send(t, app, "wrong", `{"form_id": "123456", "response_id": "17", "response_data": {}}`)
		require.Equal(t, fiber.StatusUnauthorized, status)
		require.Equal(t, "unauthorized", resp.Code)
	})

	t.Run(`malformed payload check`, func(t *testing.T) {
		status, resp := send(t, app, "secret", `{"form_id": `)
		require.Equal(t, fiber.StatusBadRequest, status)
		require.Equal(t, "malformed_payload", resp.Code)
	})
}
