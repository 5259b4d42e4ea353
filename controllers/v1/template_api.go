package apiv1

import (
	"io"

	"admission-backend/controllers"
	formtemplate "admission-backend/lib/form-template"
	importbatch "admission-backend/lib/import-batch"
	apimodels "admission-backend/models/api"
	formtemplateapimodels "admission-backend/models/api/form-template"
	importbatchapimodels "admission-backend/models/api/import-batch"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

type templateApiController struct {
	controllers.BaseAPIController
}

func InitTemplateApiRouters(app *fiber.App) {
	controller := templateApiController{}
	app.Route("templates", func(router fiber.Router) {
		router.Post("list", controller.list)
		router.Post("", controller.create)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Put("", controller.update)
			idRoute.Delete("", controller.delete)
			idRoute.Put("sync", controller.sync)
			idRoute.Get("diagnose", controller.diagnose)
			idRoute.Put("auto_create", controller.setAutoCreate)
			idRoute.Post("import", controller.importFromLimeSurvey)
			idRoute.Post("import/xlsx", controller.importFromXlsx)
			initMappingApiRouters(idRoute)
			initTemplateStageApiRouters(idRoute)
		})
	})
}

// @Summary Список анкет
// @Tags Анкеты
// @Description Список шаблонов анкет
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 formtemplateapimodels.ListFilter	true	"request body"
// @Success 200 {object} apimodels.Response{data=[]formtemplateapimodels.FormTemplateView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/templates/list [post]
func (c *templateApiController) list(ctx *fiber.Ctx) error {
	var payload formtemplateapimodels.ListFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := formtemplate.Instance.List(payload.ServerID)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка анкет")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Добавление анкеты
// @Tags Анкеты
// @Description Добавление анкеты LimeSurvey, сопоставление создается пустым
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 formtemplateapimodels.FormTemplateData	true	"request body"
// @Success 200 {object} apimodels.Response{data=string}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/templates [post]
func (c *templateApiController) create(ctx *fiber.Ctx) error {
	var payload formtemplateapimodels.FormTemplateData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	id, err := formtemplate.Instance.Create(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка добавления анкеты")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(id))
}

// @Summary Получение по ИД
// @Tags Анкеты
// @Description Анкета со схемой вопросов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.FormTemplateViewExt}
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/templates/{id} [get]
func (c *templateApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.Get(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения анкеты")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Обновление
// @Tags Анкеты
// @Description Название и обязательные ключи ответа
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 formtemplateapimodels.FormTemplateData	true	"request body"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/templates/{id} [put]
func (c *templateApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload formtemplateapimodels.FormTemplateData
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = formtemplate.Instance.Update(id, payload); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения анкеты")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Удаление
// @Tags Анкеты
// @Description Удаление анкеты и ее сопоставления
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/templates/{id} [delete]
func (c *templateApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = formtemplate.Instance.Delete(id); err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка удаления анкеты")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(nil))
}

// @Summary Синхронизация схемы
// @Tags Анкеты
// @Description Загрузка схемы анкеты из LimeSurvey и сверка строк сопоставления
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.SyncResult}
// @Failure 404 {object} apimodels.Response
// @Failure 502 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/sync [put]
func (c *templateApiController) sync(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.Sync(ctx.UserContext(), id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx).WithField("form_template_id", id), err, "Ошибка синхронизации анкеты")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Диагностика
// @Tags Анкеты
// @Description Готовность анкеты к автоматическому созданию кандидатов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.DiagnosticView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/diagnose [get]
func (c *templateApiController) diagnose(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := formtemplate.Instance.Diagnose(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка диагностики анкеты")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Автоматическое создание кандидатов
// @Tags Анкеты
// @Description Включение, приостановка и выключение автоматического создания кандидатов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 formtemplateapimodels.AutoCreateRequest	true	"request body"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=formtemplateapimodels.FormTemplateView}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/auto_create [put]
func (c *templateApiController) setAutoCreate(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload formtemplateapimodels.AutoCreateRequest
	if err = c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err = payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	resp, err := formtemplate.Instance.SetAutoCreate(id, payload.Status)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка изменения режима создания кандидатов")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Импорт из LimeSurvey
// @Tags Импорт
// @Description Пакетный импорт завершенных ответов анкеты
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=importbatchapimodels.ImportBatchView}
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @Failure 502 {object} apimodels.Response{data=importbatchapimodels.ImportBatchView}
// @router /api/v1/admission/templates/{id}/import [post]
func (c *templateApiController) importFromLimeSurvey(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := importbatch.Instance.ImportFromLimeSurvey(ctx.UserContext(), id)
	return c.sendBatch(ctx, resp, err)
}

// @Summary Импорт из xlsx
// @Tags Импорт
// @Description Пакетный импорт ответов из файла xlsx, первая строка - коды вопросов
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Param   file formData file true "Файл xlsx"
// @Success 200 {object} apimodels.Response{data=importbatchapimodels.ImportBatchView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/admission/templates/{id}/import/xlsx [post]
func (c *templateApiController) importFromXlsx(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	data, err := readFormFile(ctx, "file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewErrorWithCode(controllers.CodeValidationError, err.Error()))
	}
	resp, err := importbatch.Instance.ImportFromXlsx(ctx.UserContext(), id, data)
	return c.sendBatch(ctx, resp, err)
}

// sendBatch пакет, завершенный с ошибкой источника, возвращается вместе с кодом ошибки
func (c *templateApiController) sendBatch(ctx *fiber.Ctx, batch *importbatchapimodels.ImportBatchView, err error) error {
	if err == nil {
		return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(batch))
	}
	code, status := controllers.ErrorCode(err)
	if batch == nil || status == fiber.StatusInternalServerError {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка импорта ответов")
	}
	resp := apimodels.NewErrorWithCode(code, err.Error())
	resp.Data = batch
	return ctx.Status(status).JSON(resp)
}

func readFormFile(ctx *fiber.Ctx, name string) ([]byte, error) {
	header, err := ctx.FormFile(name)
	if err != nil {
		return nil, errors.New("файл не загружен")
	}
	file, err := header.Open()
	if err != nil {
		return nil, errors.Wrap(err, "ошибка чтения файла")
	}
	defer file.Close()
	return io.ReadAll(file)
}
