package fiberlog

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Tag names available for Config.Tags
const (
	TagPid     = "pid"
	TagStatus  = "status"
	TagLatency = "latency"
	TagMethod  = "method"
	TagPath    = "path"
	TagBody    = "body"
	TagResBody = "resBody"
	RequestID  = "requestid"
)

// FuncTag builds a log field value for a request
type FuncTag func(c *fiber.Ctx, d *data) interface{}

// data holds per-middleware request state
type data struct {
	pid   int
	start time.Time
	end   time.Time
}

var funcTagMap = map[string]FuncTag{
	TagPid:     func(c *fiber.Ctx, d *data) interface{} { return d.pid },
	TagStatus:  func(c *fiber.Ctx, d *data) interface{} { return c.Response().StatusCode() },
	TagLatency: func(c *fiber.Ctx, d *data) interface{} { return d.end.Sub(d.start).String() },
	TagMethod:  func(c *fiber.Ctx, d *data) interface{} { return c.Method() },
	TagPath:    func(c *fiber.Ctx, d *data) interface{} { return c.Path() },
	TagBody:    func(c *fiber.Ctx, d *data) interface{} { return string(c.Body()) },
	TagResBody: func(c *fiber.Ctx, d *data) interface{} { return string(c.Response().Body()) },
	RequestID:  func(c *fiber.Ctx, d *data) interface{} { return c.Get(fiber.HeaderXRequestID) },
}

// getFuncTagMap selects the FuncTag entries for the configured tags
func getFuncTagMap(cfg Config, d *data) map[string]FuncTag {
	ftm := make(map[string]FuncTag, len(cfg.Tags))
	for _, tag := range cfg.Tags {
		if ft, ok := funcTagMap[tag]; ok {
			ftm[tag] = ft
		}
	}
	return ftm
}
