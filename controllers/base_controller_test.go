package controllers

import (
	"testing"

	"admission-backend/lib/candidate"
	candidatestage "admission-backend/lib/candidate-stage"
	formschema "admission-backend/lib/form-schema"
	formtemplate "admission-backend/lib/form-template"
	"admission-backend/lib/ingestion"
	"admission-backend/lib/mapping"
	responseprocessor "admission-backend/lib/response-processor"
	dbmodels "admission-backend/models/db"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{ingestion.FormNotFoundError{SurveyID: "1"}, "form_not_found", fiber.StatusNotFound},
		{ingestion.UnauthorizedError{}, "unauthorized", fiber.StatusUnauthorized},
		{ingestion.MissingFieldsError{Keys: []string{"form_id"}}, "missing_fields", fiber.StatusBadRequest},
		{errors.Wrap(ingestion.ResponsesFetchError{Err: errors.New("timeout")}, "import"), "responses_fetch_failed", fiber.StatusBadGateway},
		{responseprocessor.MalformedPayloadError{Reason: "not an object"}, CodeMalformedPayload, fiber.StatusBadRequest},
		{responseprocessor.ErrNoValidatedMapping, CodeNoValidatedMapping, fiber.StatusConflict},
		{mapping.ValidationError{Reason: "empty"}, CodeValidationError, fiber.StatusBadRequest},
		{formschema.SchemaFetchError{SurveyID: "1", Err: errors.New("timeout")}, CodeSchemaFetchFailed, fiber.StatusBadGateway},
		{candidate.StatusError{}, CodeValidationError, fiber.StatusBadRequest},
		{candidate.EvaluationError{Reason: "уже ожидает оценки"}, CodeConflict, fiber.StatusConflict},
		{candidatestage.ErrDefaultExists, CodeConflict, fiber.StatusConflict},
		{candidatestage.ErrStageNotFound, CodeNotFound, fiber.StatusNotFound},
		{errors.Wrap(mapping.ErrLineNotFound, "line"), CodeNotFound, fiber.StatusNotFound},
		{formtemplate.ErrTemplateExists, CodeConflict, fiber.StatusConflict},
		{dbmodels.ErrAttachmentKind, CodeValidationError, fiber.StatusBadRequest},
		{errors.New("db is down"), CodeInternalError, fiber.StatusInternalServerError},
	}
	for _, item := range cases {
		t.Run(item.err.Error(), func(t *testing.T) {
			code, status := ErrorCode(item.err)
			require.Equal(t, item.code, code)
			require.Equal(t, item.status, status)
		})
	}
}
