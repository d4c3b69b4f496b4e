package middleware

import (
	"time"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/internal/util"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/annotate"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/convert"
	"github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/predict"
	storepgx "github.com/Furinaaa-Cancan/illustrator-structure-parser/pkg/store/pgx"
)

// AppUser is the authenticated annotator resolved by the auth middleware.
type AppUser struct {
	Subject string
	Name    string
}

type App struct {
	DBConn       *pgxpool.Pool
	Queue        *amqp091.Channel
	Key          *keyfunc.Keyfunc
	S3           *s3.Client
	Manager      *annotate.Manager
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

// newPredictor selects the role predictor per the PREDICTOR_ADAPTER env
// variable, falling back to the deterministic rule classifier.
func newPredictor() predict.Predictor {
	adapter := util.GetEnv("PREDICTOR_ADAPTER")

	switch adapter {
	case "remote":
		return predict.NewRemoteGraphPredictor(predict.NewRemoteGraphPredictorParams{
			BaseURL: util.GetEnv("PREDICTOR_URL"),
			Timeout: time.Duration(util.GetEnvInt("PREDICTOR_TIMEOUT_SEC", 60)) * time.Second,
		})
	default:
		return predict.NewRulePredictor()
	}
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	key *keyfunc.Keyfunc,
	s3 *s3.Client,
	masterAPIKey string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			converter := convert.NewConverter(
				convert.WithAlignmentThreshold(util.GetEnvFloat("ALIGNMENT_THRESHOLD", convert.DefaultAlignmentThreshold)),
				convert.WithOverlapThreshold(util.GetEnvFloat("OVERLAP_THRESHOLD", convert.DefaultOverlapThreshold)),
			)
			manager := annotate.NewManager(annotate.NewManagerParams{
				Store:     storepgx.NewDocumentDBStorageWithConnection(db),
				Converter: converter,
				Predictor: newPredictor(),
			})

			app := &App{
				DBConn:       db,
				Queue:        queue,
				Key:          key,
				S3:           s3,
				Manager:      manager,
				MasterAPIKey: masterAPIKey,
			}
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
