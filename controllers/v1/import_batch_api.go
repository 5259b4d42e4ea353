package apiv1

import (
	"fmt"

	"admission-backend/controllers"
	importbatch "admission-backend/lib/import-batch"
	apimodels "admission-backend/models/api"
	importbatchapimodels "admission-backend/models/api/import-batch"

	"github.com/gofiber/fiber/v2"
)

type importBatchApiController struct {
	controllers.BaseAPIController
}

func InitImportBatchApiRouters(app *fiber.App) {
	controller := importBatchApiController{}
	app.Route("import_batches", func(router fiber.Router) {
		router.Post("list", controller.list)
		router.Route(":id", func(idRoute fiber.Router) {
			idRoute.Get("", controller.get)
			idRoute.Get("report", controller.report)
		})
	})
}

// @Summary Список пакетов импорта
// @Tags Импорт
// @Description Список пакетов импорта
// @Param   Authorization		header		string	true	"Authorization token"
// @Param	body body	 importbatchapimodels.ListFilter	true	"request body"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]importbatchapimodels.ImportBatchView}
// @Failure 400 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/admission/import_batches/list [post]
func (c *importBatchApiController) list(ctx *fiber.Ctx) error {
	var payload importbatchapimodels.ListFilter
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, rowCount, err := importbatch.Instance.List(payload)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения списка пакетов импорта")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Получение по ИД
// @Tags Импорт
// @Description Итог пакета импорта с первыми строками журнала ошибок
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {object} apimodels.Response{data=importbatchapimodels.ImportBatchView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/import_batches/{id} [get]
func (c *importBatchApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	resp, err := importbatch.Instance.Get(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка получения пакета импорта")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(resp))
}

// @Summary Отчет по пакету
// @Tags Импорт
// @Description Полный отчет по пакету импорта в xlsx
// @Param   Authorization		header		string	true	"Authorization token"
// @Param   id          		path    string  				    	true         "rec ID"
// @Success 200 {file} file
// @Failure 404 {object} apimodels.Response
// @router /api/v1/admission/import_batches/{id}/report [get]
func (c *importBatchApiController) report(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	buf, err := importbatch.Instance.Report(id)
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка формирования отчета")
	}
	ctx.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"import-%s.xlsx\"", id))
	return ctx.Status(fiber.StatusOK).SendStream(buf, buf.Len())
}
