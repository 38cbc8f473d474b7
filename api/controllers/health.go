package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks every backing dependency and reports them together, so a
// single probe shows both the database and redis state.
func HealthReady(cfg *config.Config, database, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		var err error
		if database != nil {
			if pingErr := database.Ping(r.Context()); pingErr != nil {
				err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeDependency, pingErr, "database unreachable"))
			}
		}
		if cache != nil {
			if pingErr := cache.Ping(r.Context()); pingErr != nil {
				err = multierr.Append(err, pkgerrors.Wrap(pkgerrors.CodeDependency, pingErr, "redis unreachable"))
			}
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "not ready"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
