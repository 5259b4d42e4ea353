package controllers

import (
	"admission-backend/lib/candidate"
	candidatestage "admission-backend/lib/candidate-stage"
	formschema "admission-backend/lib/form-schema"
	formtemplate "admission-backend/lib/form-template"
	importbatch "admission-backend/lib/import-batch"
	"admission-backend/lib/mapping"
	responseprocessor "admission-backend/lib/response-processor"
	"admission-backend/lib/snippet"
	apimodels "admission-backend/models/api"
	dbmodels "admission-backend/models/db"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	CodeValidationError    = "validation_error"
	CodeSchemaFetchFailed  = "schema_fetch_failed"
	CodeMalformedPayload   = "malformed_payload"
	CodeNoValidatedMapping = "no_validated_mapping"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeInternalError      = "internal_error"
)

// codedError ошибка со стабильным кодом для ответа api
type codedError interface {
	Code() string
}

var codeStatuses = map[string]int{
	"form_not_found":         fiber.StatusNotFound,
	"unauthorized":           fiber.StatusUnauthorized,
	"missing_fields":         fiber.StatusBadRequest,
	"responses_fetch_failed": fiber.StatusBadGateway,
	CodeMalformedPayload:     fiber.StatusBadRequest,
	CodeNoValidatedMapping:   fiber.StatusConflict,
	CodeValidationError:      fiber.StatusBadRequest,
	CodeSchemaFetchFailed:    fiber.StatusBadGateway,
	CodeNotFound:             fiber.StatusNotFound,
	CodeConflict:             fiber.StatusConflict,
}

var errorCodes = []struct {
	err  error
	code string
}{
	{mapping.ErrTemplateNotFound, CodeNotFound},
	{mapping.ErrLineNotFound, CodeNotFound},
	{formtemplate.ErrServerNotFound, CodeNotFound},
	{formtemplate.ErrTemplateNotFound, CodeNotFound},
	{candidate.ErrCandidateNotFound, CodeNotFound},
	{candidate.ErrAttachmentNotFound, CodeNotFound},
	{candidate.ErrAttachmentNoFile, CodeNotFound},
	{candidate.ErrStageNotFound, CodeNotFound},
	{candidatestage.ErrTemplateNotFound, CodeNotFound},
	{candidatestage.ErrStageNotFound, CodeNotFound},
	{candidatestage.ErrDefaultExists, CodeConflict},
	{candidatestage.ErrDefaultStage, CodeConflict},
	{candidatestage.ErrStageInUse, CodeConflict},
	{importbatch.ErrBatchNotFound, CodeNotFound},
	{importbatch.ErrTemplateNotFound, CodeNotFound},
	{formtemplate.ErrServerInUse, CodeConflict},
	{formtemplate.ErrTemplateExists, CodeConflict},
	{formtemplate.ErrMappingNotValidated, CodeConflict},
	{importbatch.ErrImportRunning, CodeConflict},
	{importbatch.ErrEmptyFile, CodeValidationError},
	{responseprocessor.ErrNoValidatedMapping, CodeNoValidatedMapping},
	{dbmodels.ErrConfidenceRange, CodeValidationError},
	{dbmodels.ErrEmptyTarget, CodeValidationError},
	{dbmodels.ErrAttachmentKind, CodeValidationError},
	{dbmodels.ErrUnknownMappingKind, CodeValidationError},
}

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("ошибка распознавания запроса")
		return errors.New("не удалось получить данные из запроса")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	return c.GetParam(ctx, "id")
}

func (c *BaseAPIController) GetParam(ctx *fiber.Ctx, name string) (string, error) {
	value := ctx.Params(name)
	if value == "" {
		return "", errors.Errorf("не указан параметр %s", name)
	}
	return value, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path())
}

// ErrorCode код и http статус ответа для ошибки обработчика
func ErrorCode(err error) (code string, status int) {
	var coded codedError
	if errors.As(err, &coded) {
		code = coded.Code()
		if status, ok := codeStatuses[code]; ok {
			return code, status
		}
		return code, fiber.StatusBadRequest
	}
	var validationErr mapping.ValidationError
	var compileErr snippet.CompileError
	var statusErr candidate.StatusError
	var evaluationErr candidate.EvaluationError
	var fetchErr formschema.SchemaFetchError
	var payloadErr responseprocessor.MalformedPayloadError
	switch {
	case errors.As(err, &validationErr), errors.As(err, &compileErr), errors.As(err, &statusErr):
		return CodeValidationError, fiber.StatusBadRequest
	case errors.As(err, &evaluationErr):
		return CodeConflict, fiber.StatusConflict
	case errors.As(err, &fetchErr):
		return CodeSchemaFetchFailed, fiber.StatusBadGateway
	case errors.As(err, &payloadErr):
		return CodeMalformedPayload, fiber.StatusBadRequest
	}
	for _, item := range errorCodes {
		if errors.Is(err, item.err) {
			return item.code, codeStatuses[item.code]
		}
	}
	return CodeInternalError, fiber.StatusInternalServerError
}

// SendError ответ с кодом ошибки; внутренние ошибки логируются, клиент получает message
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, logger *log.Entry, err error, message string) error {
	code, status := ErrorCode(err)
	if status == fiber.StatusInternalServerError {
		logger.WithError(err).Error(message)
		return ctx.Status(status).JSON(apimodels.NewErrorWithCode(code, message))
	}
	logger.WithError(err).Warn(message)
	return ctx.Status(status).JSON(apimodels.NewErrorWithCode(code, err.Error()))
}
