package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"admission-backend/config"
	apiv1 "admission-backend/controllers/v1"
	webhooksapi "admission-backend/controllers/v1/webhooks"
	"admission-backend/fiberlog"
	"admission-backend/initializers"
	"admission-backend/middleware"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberRecover "github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	initializers.InitAllServices(ctx)

	app := fiber.New(fiber.Config{
		BodyLimit: 100 * 1024 * 1024, // вебхуки с вложениями в base64
	})
	app.Use(fiberRecover.New())

	swaggerCfg := swagger.Config{
		Path:     "/swagger",
		FilePath: "./docs/swagger.json",
	}
	app.Use(swagger.New(swaggerCfg))

	//api
	apiV1 := fiber.New()
	apiV1.Use(fiberlog.New(*initializers.LoggerConfig))
	apiV1.Use(middleware.ErrNotify(config.Conf.App.ErrNotifyURL))
	apiV1.Use(middleware.WithBodyLimit(config.Conf.BodyLimit(), "/api/v1/webhooks"))
	app.Mount("/api/v1", apiV1)
	apiV1.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PATCH, DELETE, PUT",
	}))
	apiv1.InitAuthApiRouters(apiV1)

	//вебхуки LimeSurvey, авторизация по X-Webhook-Token
	webhooks := fiber.New()
	apiV1.Mount("/webhooks", webhooks)
	webhooksapi.InitLimeSurveyWebhookApiRouters(webhooks)

	//приемная комиссия
	operator := fiber.New()
	apiV1.Mount("/admission", operator)
	operator.Use(middleware.AuthorizationRequired())
	apiv1.InitServerApiRouters(operator)
	apiv1.InitTemplateApiRouters(operator)
	apiv1.InitImportBatchApiRouters(operator)
	apiv1.InitCandidateApiRouters(operator)
	apiv1.InitStageApiRouters(operator)

	// gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	wg := sync.WaitGroup{}
	go func() {
		_ = <-c
		wg.Add(1)
		defer wg.Done()
		log.Info("Gracefully shutting down...")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Error when try gracefully shutting down")
		}
		initializers.CloseAll()
		time.Sleep(time.Second)
		log.Info("Gracefully shutting down finished")
	}()

	// run HTTP server
	if err := app.Listen(fmt.Sprintf("%s:%d", config.Conf.App.ListenAddr, config.Conf.App.Port)); err != nil {
		log.Fatal(err)
	}

	wg.Wait()
	log.Info("HTTP server successfully stopped")
}
