package webhooksapi

import (
	"admission-backend/controllers"
	"admission-backend/lib/ingestion"
	apimodels "admission-backend/models/api"
	ingestionapimodels "admission-backend/models/api/ingestion"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

const HeaderWebhookToken = "X-Webhook-Token"

type limeSurveyWebhookController struct {
	controllers.BaseAPIController
}

func InitLimeSurveyWebhookApiRouters(app *fiber.App) {
	controller := limeSurveyWebhookController{}
	app.Route("limesurvey", func(router fiber.Router) {
		router.Post("submission", controller.submission)
	})
}

// @Summary Ответ на анкету
// @Tags Webhooks. LimeSurvey
// @Description Создание кандидата из ответа на анкету. Повторная отправка ответа возвращает прежнюю карточку
// @Param   X-Webhook-Token		header		string	true	"Токен сервера LimeSurvey"
// @Param	body body	 ingestionapimodels.WebhookSubmission	true	"request body"
// @Success 200 {object} apimodels.Response{data=ingestionapimodels.SubmitResultView}
// @Failure 400 {object} apimodels.Response
// @Failure 401 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/webhooks/limesurvey/submission [post]
func (c *limeSurveyWebhookController) submission(ctx *fiber.Ctx) error {
	var payload ingestionapimodels.WebhookSubmission
	if err := ctx.BodyParser(&payload); err != nil {
		log.WithError(err).Warn("некорректный запрос вебхука LimeSurvey")
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeMalformedPayload, "не удалось получить данные из запроса"))
	}
	logger := c.GetLogger(ctx).
		WithField("survey_id", payload.GetSurveyID()).
		WithField("response_id", payload.ResponseID.String())
	result, err := ingestion.Instance.Submit(ctx.UserContext(), ctx.Get(HeaderWebhookToken), payload)
	if err != nil {
		return c.SendError(ctx, logger, err, "Ошибка обработки ответа анкеты")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(result.ToModel()))
}
