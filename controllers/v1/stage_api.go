package apiv1

import (
	"admission-backend/controllers"
	candidatestage "admission-backend/lib/candidate-stage"
	apimodels "admission-backend/models/api"
	candidatestageapimodels "admission-backend/models/api/candidate-stage"

	"github.com/gofiber/fiber/v2"
)

type stageApiController struct {
	controllers.BaseAPIController
}

// initTemplateStageApiRouters этапы анкеты, маршруты внутри templates/:id
func initTemplateStageApiRouters(router fiber.Router) {
	controller := stageApiController{}
	router.Get("stages", controller.list)
	router.Post("stages", controller.create)
}

func InitStageApiRouters(app *fiber.App) {
	controller := stageApiController{}
	app.Route("stages/:id", func(idRoute fiber.Router) {
		idRoute.Put("", controller.update)
		idRoute.Delete("", controller.delete)
		idRoute.Put("set_default", controller.setDefault)
	})
}

// @Summary Этапы отбора
// @Tags Этапы отбора
// @Description Этапы воронки отбора анкеты с количеством кандидатов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Success 200 {object} apimodels.Response{data=[]candidatestageapimodels.StageView}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/stages [get]
func (c *stageApiController) list(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := candidatestage.Instance.List(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения этапов")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Добавление этапа
// @Tags Этапы отбора
// @Description Первый этап анкеты становится этапом по умолчанию
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "form template ID"
// @Param	body body	 candidatestageapimodels.StageData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/stages [post]
func (c *stageApiController) create(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload candidatestageapimodels.StageData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	stageID, err := candidatestage.Instance.Create(id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка добавления этапа")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(stageID))
}

// @Summary Обновление этапа
// @Tags Этапы отбора
// @Description Название, код, порядок. Этап по умолчанию меняется отдельно
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "stage ID"
// @Param	body body	 candidatestageapimodels.StageData	true	"request body"
// @Success 200 {object} apimodels.Response{data=candidatestageapimodels.StageView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/stages/{id} [put]
func (c *stageApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload candidatestageapimodels.StageData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	resp, err := candidatestage.Instance.Update(id, payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения этапа")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Удаление этапа
// @Tags Этапы отбора
// @Description Этап по умолчанию и этап с кандидатами не удаляются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "stage ID"
// @Success 200 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/stages/{id} [delete]
func (c *stageApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = candidatestage.Instance.Delete(id); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления этапа")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Этап по умолчанию
// @Tags Этапы отбора
// @Description Новые кандидаты анкеты будут попадать на этот этап
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "stage ID"
// @Success 200 {object} apimodels.Response{data=candidatestageapimodels.StageView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/stages/{id}/set_default [put]
func (c *stageApiController) setDefault(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := candidatestage.Instance.SetDefault(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения этапа по умолчанию")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}
