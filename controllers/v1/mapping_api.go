package apiv1

import (
	"admission-backend/controllers"
	"admission-backend/lib/mapping"
	apimodels "admission-backend/models/api"
	mappingapimodels "admission-backend/models/api/mapping"

	"github.com/gofiber/fiber/v2"
)

type mappingApiController struct {
	controllers.BaseAPIController
}

// initMappingApiRouters сопоставление анкеты, маршруты внутри templates/:id
func initMappingApiRouters(router fiber.Router) {
	controller := mappingApiController{}
	router.Route("mapping", func(mappingRoute fiber.Router) {
		mappingRoute.Get("", controller.get)
		mappingRoute.Put("validate", controller.validate)
		mappingRoute.Put("reset", controller.reset)
		mappingRoute.Put("regenerate", controller.regenerate)
		mappingRoute.Put("validate_high_confidence", controller.validateHighConfidence)
		mappingRoute.Put("validate_all_mapped", controller.validateAllMapped)
		mappingRoute.Put("apply_suggestions", controller.applySuggestions)
		mappingRoute.Get("field_options", controller.fieldOptions)
		mappingRoute.Route("lines/:line_id", func(lineRoute fiber.Router) {
			lineRoute.Put("", controller.updateLine)
			lineRoute.Put("action/:action", controller.lineAction)
			lineRoute.Post("test", controller.testLine)
			lineRoute.Get("suggestions", controller.suggestions)
		})
	})
}

// @Summary Сопоставление анкеты
// @Tags Сопоставление
// @Description Набор строк сопоставления со статистикой
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.MappingView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping [get]
func (c *mappingApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := mapping.Instance.Get(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Проверка сопоставления
// @Tags Сопоставление
// @Description Перевод в validated, ответы без сопоставления обрабатываются повторно
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.MappingView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/validate [put]
func (c *mappingApiController) validate(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := mapping.Instance.Validate(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка проверки сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Возврат в черновик
// @Tags Сопоставление
// @Description Возврат сопоставления в draft, автоматическое создание кандидатов выключается
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.MappingView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/reset [put]
func (c *mappingApiController) reset(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := mapping.Instance.ResetToDraft(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Пересоздание строк
// @Tags Сопоставление
// @Description Сверка строк с сохраненной схемой анкеты
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.SyncResult}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/regenerate [put]
func (c *mappingApiController) regenerate(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	stats, err := mapping.Instance.Regenerate(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка пересоздания строк сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(stats))
}

// @Summary Проверка строк с высокой уверенностью
// @Tags Сопоставление
// @Description Строки с уверенностью от 80 переводятся в validated
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.BulkResult}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/validate_high_confidence [put]
func (c *mappingApiController) validateHighConfidence(ctx *fiber.Ctx) error {
	return c.bulk(ctx, mapping.Instance.ValidateHighConfidence)
}

// @Summary Проверка всех сопоставленных строк
// @Tags Сопоставление
// @Description Все строки с выбранным полем переводятся в validated
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.BulkResult}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/validate_all_mapped [put]
func (c *mappingApiController) validateAllMapped(ctx *fiber.Ctx) error {
	return c.bulk(ctx, mapping.Instance.ValidateAllMapped)
}

// @Summary Применение подсказок
// @Tags Сопоставление
// @Description Подсказки для черновых строк, строки с высокой уверенностью проверяются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.BulkResult}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/apply_suggestions [put]
func (c *mappingApiController) applySuggestions(ctx *fiber.Ctx) error {
	return c.bulk(ctx, mapping.Instance.ApplySuggestions)
}

func (c *mappingApiController) bulk(ctx *fiber.Ctx, fn func(templateID string) (mappingapimodels.BulkResult, error)) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := fn(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения строк сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Поля кандидата
// @Tags Сопоставление
// @Description Поля кандидата для выбора цели строки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=[]models.TargetFieldSpec}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/field_options [get]
func (c *mappingApiController) fieldOptions(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := mapping.Instance.FieldOptions(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения полей кандидата")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Изменение строки
// @Tags Сопоставление
// @Description Изменение цели, типа, выражений строки
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 mappingapimodels.LineUpdate	true	"request body"
// @Param   id          		path    string  				    	true         "form template ID"
// @Param   line_id        		path    string  				    	true         "line ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.MappingLineView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/lines/{line_id} [put]
func (c *mappingApiController) updateLine(ctx *fiber.Ctx) error {
	id, lineID, err := c.lineParams(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload mappingapimodels.LineUpdate
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	resp, err := mapping.Instance.UpdateLine(id, lineID, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("line_id", lineID), err, "Ошибка изменения строки сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Действие со строкой
// @Tags Сопоставление
// @Description validate / mark_to_verify / reset
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Param   line_id        		path    string  				    	true         "line ID"
// @Param   action        		path    string  				    	true         "validate/mark_to_verify/reset"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.MappingLineView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/lines/{line_id}/action/{action} [put]
func (c *mappingApiController) lineAction(ctx *fiber.Ctx) error {
	id, lineID, err := c.lineParams(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	action, err := c.GetParam(ctx, "action")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	switch mapping.LineAction(action) {
	case mapping.LineActionValidate, mapping.LineActionMarkToVerify, mapping.LineActionReset:
	default:
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, "неизвестное действие"))
	}
	resp, err := mapping.Instance.LineAction(id, lineID, mapping.LineAction(action))
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("line_id", lineID), err, "Ошибка изменения строки сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Проверка строки на примере
// @Tags Сопоставление
// @Description Преобразование и проверка значения без сохранения
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 mappingapimodels.LineTestRequest	true	"request body"
// @Param   id          		path    string  				    	true         "form template ID"
// @Param   line_id        		path    string  				    	true         "line ID"
// @Success 200 {object} apimodels.Response{data=mappingapimodels.LineTestResult}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/lines/{line_id}/test [post]
func (c *mappingApiController) testLine(ctx *fiber.Ctx) error {
	id, lineID, err := c.lineParams(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload mappingapimodels.LineTestRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := mapping.Instance.TestLine(ctx.UserContext(), id, lineID, payload.Value)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("line_id", lineID), err, "Ошибка проверки строки сопоставления")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Подсказки для строки
// @Tags Сопоставление
// @Description Поля кандидата по убыванию уверенности
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Param   line_id        		path    string  				    	true         "line ID"
// @Success 200 {object} apimodels.Response{data=[]mappingapimodels.Suggestion}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/mapping/lines/{line_id}/suggestions [get]
func (c *mappingApiController) suggestions(ctx *fiber.Ctx) error {
	id, lineID, err := c.lineParams(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := mapping.Instance.LineSuggestions(id, lineID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("line_id", lineID), err, "Ошибка получения подсказок")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

func (c *mappingApiController) lineParams(ctx *fiber.Ctx) (id, lineID string, err error) {
	if id, err = c.GetID(ctx); err != nil {
		return "", "", err
	}
	if lineID, err = c.GetParam(ctx, "line_id"); err != nil {
		return "", "", err
	}
	return id, lineID, nil
}
