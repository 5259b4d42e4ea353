package apiv1

import (
	"mime"

	"admission-backend/controllers"
	"admission-backend/lib/candidate"
	apimodels "admission-backend/models/api"
	candidateapimodels "admission-backend/models/api/candidate"

	"github.com/gofiber/fiber/v2"
)

type candidateApiController struct {
	controllers.BaseAPIController
}

func InitCandidateApiRouters(app *fiber.App) {
	controller := candidateApiController{}
	app.Route("candidates", func(router fiber.Router) {
		router.Post("list", controller.list)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("change_status", controller.changeStatus)
			idRoute.Put("change_stage", controller.changeStage)
			idRoute.Route("evaluation", func(evalRoute fiber.Router) {
				evalRoute.Put("start", controller.startEvaluation)
				evalRoute.Put("", controller.evaluate)
				evalRoute.Put("complete", controller.completeEvaluation)
				evalRoute.Put("reset", controller.resetEvaluation)
			})
			idRoute.Get("attachments/:attachment_id", controller.attachment)
		})
	})
}

// @Summary Список кандидатов
// @Tags Кандидаты
// @Description Список кандидатов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 candidateapimodels.ListFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]candidateapimodels.CandidateView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/candidates/list [post]
func (c *candidateApiController) list(ctx *fiber.Ctx) error {
	var payload candidateapimodels.ListFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	list, rowCount, err := candidate.Instance.List(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка кандидатов")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Получение по ИД
// @Tags Кандидаты
// @Description Карточка кандидата с исходным ответом и документами
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=candidateapimodels.CandidateViewExt}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id} [get]
func (c *candidateApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := candidate.Instance.Get(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения кандидата")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Смена статуса
// @Tags Кандидаты
// @Description Переход кандидата на следующий этап
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 candidateapimodels.ChangeStatusRequest	true	"request body"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=candidateapimodels.CandidateView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id}/change_status [put]
func (c *candidateApiController) changeStatus(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload candidateapimodels.ChangeStatusRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	resp, err := candidate.Instance.ChangeStatus(id, payload.Status)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения статуса кандидата")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Документ кандидата
// @Tags Кандидаты
// @Description Выгрузка файла документа
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param   attachment_id  		path    string  				    	true         "attachment ID"
// @Success 200 {file} file
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id}/attachments/{attachment_id} [get]
func (c *candidateApiController) attachment(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	attachmentID, err := c.GetParam(ctx, "attachment_id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	file, err := candidate.Instance.GetAttachment(ctx.UserContext(), id, attachmentID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения документа")
	}
	contentType := file.MimeType
	if contentType == "" {
		contentType = fiber.MIMEOctetStream
	}
	ctx.Set(fiber.HeaderContentType, contentType)
	ctx.Set(fiber.HeaderContentDisposition, mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	return ctx.Status(fiber.StatusOK).Send(file.Data)
}

// @Summary Смена этапа
// @Tags Кандидаты
// @Description Перевод кандидата на этап воронки его анкеты
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 candidateapimodels.ChangeStageRequest	true	"request body"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=candidateapimodels.CandidateView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id}/change_stage [put]
func (c *candidateApiController) changeStage(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload candidateapimodels.ChangeStageRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	resp, err := candidate.Instance.ChangeStage(id, payload.StageID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка смены этапа кандидата")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Начало оценки
// @Tags Кандидаты
// @Description pending -> in_progress
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=candidateapimodels.CandidateView}
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id}/evaluation/start [put]
func (c *candidateApiController) startEvaluation(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := candidate.Instance.StartEvaluation(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка начала оценки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Оценки кандидата
// @Tags Кандидаты
// @Description Академическая оценка, опыт, мотивация и комментарий. Пустые поля не меняются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 candidateapimodels.EvaluationRequest	true	"request body"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=candidateapimodels.CandidateView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id}/evaluation [put]
func (c *candidateApiController) evaluate(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload candidateapimodels.EvaluationRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	resp, err := candidate.Instance.Evaluate(id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка сохранения оценок")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Завершение оценки
// @Tags Кандидаты
// @Description in_progress -> completed, нужны все три оценки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=candidateapimodels.CandidateView}
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id}/evaluation/complete [put]
func (c *candidateApiController) completeEvaluation(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := candidate.Instance.CompleteEvaluation(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка завершения оценки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Сброс оценки
// @Tags Кандидаты
// @Description Возврат в pending, оценки очищаются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=candidateapimodels.CandidateView}
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/candidates/{id}/evaluation/reset [put]
func (c *candidateApiController) resetEvaluation(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := candidate.Instance.ResetEvaluation(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка сброса оценки")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}
