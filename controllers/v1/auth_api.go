package apiv1

import (
	"time"

	"admission-backend/config"
	"admission-backend/controllers"
	authutils "admission-backend/lib/utils/auth-utils"
	"admission-backend/middleware"
	apimodels "admission-backend/models/api"
	authapimodels "admission-backend/models/api/auth"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

type authApiController struct {
	controllers.BaseAPIController
}

func InitAuthApiRouters(app *fiber.App) {
	controller := authApiController{}
	app.Route("auth", func(router fiber.Router) {
		router.Post("login", controller.login)
		router.Use(middleware.AuthorizationRequired()).Get("me", controller.me)
	})
}

// @Summary Аутентификация оператора
// @Tags Аутентификация
// @Description Аутентификация оператора приемной комиссии
// @Param	body				body		authapimodels.LoginRequest	true	"request body"
// @Success 200 {object} apimodels.Response{data=authapimodels.JWTResponse}
// @Failure 400 {object} apimodels.Response
// @Failure 401 {object} apimodels.Response
// @Failure 500 {object} apimodels.Response
// @router /api/v1/auth/login [post]
func (c *authApiController) login(ctx *fiber.Ctx) error {
	var payload authapimodels.LoginRequest
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}

	if err := payload.Validate(); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	auth := config.Conf.Auth
	if err := authutils.CheckCredentials(payload.Login, payload.Password, auth.OperatorLogin, auth.OperatorPassword); err != nil {
		log.WithField("login", payload.Login).Warn("неудачная попытка входа")
		return ctx.Status(fiber.StatusUnauthorized).JSON(apimodels.NewErrorWithCode("unauthorized", err.Error()))
	}
	expireIn := time.Duration(auth.JWTExpireInSec) * time.Second
	token, err := authutils.GetToken(payload.Login, auth.JWTSecret, expireIn, time.Now())
	if err != nil {
		return c.SendError(ctx, c.GetLogger(ctx), err, "Ошибка формирования токена")
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(authapimodels.JWTResponse{
		Token:     token,
		ExpiresIn: auth.JWTExpireInSec,
	}))
}

// @Summary Текущий оператор
// @Tags Аутентификация
// @Description Текущий оператор
// @Param   Authorization		header		string	true	"Authorization token"
// @Success 200 {object} apimodels.Response{data=authapimodels.MeView}
// @Failure 401 {object} apimodels.Response
// @router /api/v1/auth/me [get]
func (c *authApiController) me(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(authapimodels.MeView{
		Login: authutils.GetOperator(ctx),
	}))
}
