// Package runtime wires configuration into the concrete service graph used
// by the CLI commands, and carries runtime metadata separate from user
// configuration.
package runtime

import (
	"github.com/jonboulle/clockwork"

	"github.com/quakepredict/quakepredict-go/internal/conf"
	"github.com/quakepredict/quakepredict-go/internal/datastore"
	"github.com/quakepredict/quakepredict-go/internal/errors"
	"github.com/quakepredict/quakepredict-go/internal/logging"
	"github.com/quakepredict/quakepredict-go/internal/model"
	"github.com/quakepredict/quakepredict-go/internal/observability"
	"github.com/quakepredict/quakepredict-go/internal/registry"
	"github.com/quakepredict/quakepredict-go/internal/risk"
	"github.com/quakepredict/quakepredict-go/internal/weather"
)

// Context contains runtime metadata that is not user-configurable. It is
// injected at application startup and is not part of the configuration
// system.
type Context struct {
	// Version holds the Git version tag from build
	Version string

	// BuildDate is the time when the binary was built
	BuildDate string
}

// Services is the fully wired service graph.
type Services struct {
	Settings *conf.Settings
	DS       datastore.Interface
	Registry *registry.Registry
	Weather  *weather.Service
	Model    *model.Model // nil in degraded mode
	Risk     *risk.Service
	Metrics  *observability.Metrics
}

// Bootstrap constructs and connects every service from settings. A model
// load failure is not fatal: the service starts degraded and keeps serving
// cached reports.
func Bootstrap(settings *conf.Settings) (*Services, error) {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, errors.New(err).
			Component("runtime").
			Category(errors.CategoryConfiguration).
			Build()
	}

	ds := datastore.New(settings)
	if ds == nil {
		return nil, errors.Newf("no database backend is enabled").
			Component("runtime").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := ds.Open(); err != nil {
		return nil, err
	}

	reg := registry.New()
	if err := reg.Reconcile(ds); err != nil {
		return nil, err
	}

	weatherService, err := weather.NewService(settings, metrics.Weather)
	if err != nil {
		return nil, err
	}

	var predictor risk.Predictor
	riskModel, err := model.Load(settings.Model.Path)
	if err != nil {
		logging.Error("Risk model failed to load, starting in degraded mode",
			"path", settings.Model.Path, "error", err)
	} else {
		predictor = riskModel
	}

	riskService := risk.New(reg, weatherService, predictor, ds,
		clockwork.NewRealClock(), metrics.Risk)

	return &Services{
		Settings: settings,
		DS:       ds,
		Registry: reg,
		Weather:  weatherService,
		Model:    riskModel,
		Risk:     riskService,
		Metrics:  metrics,
	}, nil
}

// Close releases held resources, currently the database connection.
func (s *Services) Close() error {
	if s.DS != nil {
		return s.DS.Close()
	}
	return nil
}
