package apiv1

import (
	"admission-backend/controllers"
	formtemplate "admission-backend/lib/form-template"
	apimodels "admission-backend/models/api"
	formtemplateapimodels "admission-backend/models/api/form-template"

	"github.com/gofiber/fiber/v2"
)

type serverApiController struct {
	controllers.BaseAPIController
}

func InitServerApiRouters(app *fiber.App) {
	controller := serverApiController{}
	app.Route("servers", func(router fiber.Router) {
		router.Post("list", controller.list)
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("", controller.update)
			idRoute.Delete("", controller.delete)
			idRoute.Get("token", controller.getToken)
			idRoute.Put("token", controller.regenerateToken)
			idRoute.Put("test_connection", controller.testConnection)
			idRoute.Get("surveys", controller.remoteSurveys)
			idRoute.Put("sync_forms", controller.syncForms)
		})
	})
}

// @Summary Список серверов
// @Tags Серверы LimeSurvey
// @Description Список серверов LimeSurvey
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=[]formtemplateapimodels.ServerView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/servers/list [post]
func (c *serverApiController) list(ctx *fiber.Ctx) error {
	list, err := formtemplate.Instance.ListServers()
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка серверов")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Добавление сервера
// @Tags Серверы LimeSurvey
// @Description Добавление сервера, токен вебхука формируется автоматически
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 formtemplateapimodels.ServerData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/servers [post]
func (c *serverApiController) create(ctx *fiber.Ctx) error {
	var payload formtemplateapimodels.ServerData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	id, err := formtemplate.Instance.CreateServer(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка добавления сервера")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Получение по ИД
// @Tags Серверы LimeSurvey
// @Description Получение сервера по ИД
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.ServerView}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/servers/{id} [get]
func (c *serverApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.GetServer(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения сервера")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Обновление
// @Tags Серверы LimeSurvey
// @Description Обновление сервера, пустой пароль не меняется
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 formtemplateapimodels.ServerData	true	"request body"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/servers/{id} [put]
func (c *serverApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload formtemplateapimodels.ServerData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	if err = formtemplate.Instance.UpdateServer(id, payload); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения сервера")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Удаление
// @Tags Серверы LimeSurvey
// @Description Удаление сервера без анкет
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/servers/{id} [delete]
func (c *serverApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = formtemplate.Instance.DeleteServer(id); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления сервера")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Токен вебхука
// @Tags Серверы LimeSurvey
// @Description Токен для заголовка X-Webhook-Token
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.ServerTokenView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/servers/{id}/token [get]
func (c *serverApiController) getToken(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.GetWebhookToken(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения токена")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Новый токен вебхука
// @Tags Серверы LimeSurvey
// @Description Новый токен вебхука, прежний перестает действовать
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.ServerTokenView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/servers/{id}/token [put]
func (c *serverApiController) regenerateToken(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.RegenerateToken(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения токена")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Проверка подключения
// @Tags Серверы LimeSurvey
// @Description Проверка подключения к RemoteControl API
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.ServerView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/servers/{id}/test_connection [put]
func (c *serverApiController) testConnection(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.TestConnection(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка проверки подключения")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Анкеты сервера
// @Tags Серверы LimeSurvey
// @Description Список анкет на сервере LimeSurvey
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=[]formtemplateapimodels.RemoteSurvey}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/servers/{id}/surveys [get]
func (c *serverApiController) remoteSurveys(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.ListRemoteSurveys(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения анкет сервера")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Синхронизация анкет сервера
// @Tags Серверы LimeSurvey
// @Description Добавление шаблонов для всех анкет сервера, названия существующих обновляются
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.SyncFormsResult}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/servers/{id}/sync_forms [put]
func (c *serverApiController) syncForms(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.SyncForms(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка синхронизации анкет сервера")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}
