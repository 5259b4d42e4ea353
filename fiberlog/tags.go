package fiberlog

import (
	"time"

	"admission-backend/lib/utils/helpers"

	"github.com/gofiber/fiber/v2"
)

const (
	TagPid     = "pid"
	TagLatency = "latency"
	TagMethod  = "method"
	TagPath    = "path"
	TagStatus  = "status"
	TagIP      = "ip"
	TagUA      = "ua"
	TagBody    = "body"
	TagResBody = "resBody"
	RequestID  = "requestId"
)

// тело запроса вебхука содержит файлы в base64
const maxBodyLog = 2000

type data struct {
	pid   int
	start time.Time
	end   time.Time
}

// FuncTag значение тега для записи лога запроса
type FuncTag func(c *fiber.Ctx, d *data) interface{}

var funcTags = map[string]FuncTag{
	TagPid: func(c *fiber.Ctx, d *data) interface{} {
		return d.pid
	},
	TagLatency: func(c *fiber.Ctx, d *data) interface{} {
		return d.end.Sub(d.start).String()
	},
	TagMethod: func(c *fiber.Ctx, d *data) interface{} {
		return c.Method()
	},
	TagPath: func(c *fiber.Ctx, d *data) interface{} {
		return c.Path()
	},
	TagStatus: func(c *fiber.Ctx, d *data) interface{} {
		return c.Response().StatusCode()
	},
	TagIP: func(c *fiber.Ctx, d *data) interface{} {
		return c.IP()
	},
	TagUA: func(c *fiber.Ctx, d *data) interface{} {
		return c.Get(fiber.HeaderUserAgent)
	},
	TagBody: func(c *fiber.Ctx, d *data) interface{} {
		return helpers.Truncate(string(c.Body()), maxBodyLog)
	},
	TagResBody: func(c *fiber.Ctx, d *data) interface{} {
		return helpers.Truncate(string(c.Response().Body()), maxBodyLog)
	},
	RequestID: func(c *fiber.Ctx, d *data) interface{} {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		return id
	},
}

func getFuncTagMap(cfg Config) map[string]FuncTag {
	result := make(map[string]FuncTag, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if ft, ok := funcTags[tag]; ok {
			result[tag] = ft
		}
	}
	return result
}
