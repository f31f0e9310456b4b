package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skin-analysis-service/logging"
	"skin-analysis-service/metrics"
)

type AppConfig struct {
	// BodyLimit caps request bodies, uploads included.
	BodyLimit int
}

// NewApp builds the REST application with middleware and all routes.
func NewApp(h *Handlers, cfg AppConfig) *fiber.App {
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 10 << 20
	}

	app := fiber.New(fiber.Config{
		AppName:               "skin-analysis-service",
		BodyLimit:             cfg.BodyLimit,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(requestLogger())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	h.Register(app)

	return app
}

// ErrorHandler renders every error as {"error": message}. Errors that are not
// *fiber.Error become 500s.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		logging.Error().
			Err(err).
			Str("path", c.Path()).
			Interface("request_id", c.Locals("requestid")).
			Msg("request failed")
	}

	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// requestLogger logs each request and records its latency. Errors are
// rendered here so the logged status is the one sent to the client.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path
		metrics.APIRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		logging.Info().
			Interface("request_id", c.Locals("requestid")).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", c.IP()).
			Msg("request")
		return nil
	}
}
