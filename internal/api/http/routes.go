package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-prediction/internal/common"
	"github.com/i474232898/weather-prediction/internal/weather"
)

var validate = validator.New()

// Predictor is the prediction surface the routes need.
type Predictor interface {
	PredictRain(ctx context.Context, ref time.Time) (weather.RainPrediction, error)
	PredictPrecipitation(ctx context.Context, ref time.Time) (weather.PrecipitationPrediction, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Predictor) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"project": "Open Meteo: Rain (7d) and Precipitation (3d) Prediction API",
			"endpoints": []string{
				"/", "/health/", "/predict/rain/", "/predict/precipitation/fall/",
			},
			"inputs": fiber.Map{
				"/predict/rain/":               fiber.Map{"date": "YYYY-MM-DD"},
				"/predict/precipitation/fall/": fiber.Map{"date": "YYYY-MM-DD"},
			},
			"outputs": fiber.Map{
				"/predict/rain/": fiber.Map{
					"input_date": "YYYY-MM-DD",
					"prediction": fiber.Map{"date": "YYYY-MM-DD", "will_rain": true},
				},
				"/predict/precipitation/fall/": fiber.Map{
					"input_date": "YYYY-MM-DD",
					"prediction": fiber.Map{
						"start_date":         "YYYY-MM-DD",
						"end_date":           "YYYY-MM-DD",
						"precipitation_fall": 28.2,
					},
				},
			},
		})
	})

	app.Get("/health/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Open Meteo API healthy",
		})
	})

	predict := app.Group("/predict")

	predict.Get("/rain/", func(c *fiber.Ctx) error {
		ref, err := parseDateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		pred, err := svc.PredictRain(c.UserContext(), ref)
		if err != nil {
			return predictionError(err)
		}

		return c.JSON(fiber.Map{
			"input_date": common.FormatDay(pred.InputDate),
			"prediction": fiber.Map{
				"date":        common.FormatDay(pred.TargetDate),
				"will_rain":   pred.WillRain,
				"probability": pred.Probability,
			},
		})
	})

	predict.Get("/precipitation/fall/", func(c *fiber.Ctx) error {
		ref, err := parseDateQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		pred, err := svc.PredictPrecipitation(c.UserContext(), ref)
		if err != nil {
			return predictionError(err)
		}

		return c.JSON(fiber.Map{
			"input_date": common.FormatDay(pred.InputDate),
			"prediction": fiber.Map{
				"start_date":         common.FormatDay(pred.StartDate),
				"end_date":           common.FormatDay(pred.EndDate),
				"precipitation_fall": pred.PrecipitationMM,
			},
		})
	})
}

// dateQuery holds the query parameters of the predict endpoints.
type dateQuery struct {
	Date string `validate:"required,datetime=2006-01-02"`
}

func parseDateQuery(c *fiber.Ctx) (time.Time, error) {
	q := dateQuery{Date: c.Query("date")}
	if err := validate.Struct(q); err != nil {
		return time.Time{}, common.ErrInvalidDay
	}
	return common.ParseDay(q.Date)
}

// predictionError maps service errors onto HTTP statuses.
func predictionError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "upstream request timed out")
	case errors.Is(err, weather.ErrUpstream):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
