package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"

	"zulaBack/internal/taxi"
)

func (app *application) routes() (http.Handler, error) {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)

	mux := pat.New()

	mux.Get("/healthz", standardMiddleware.ThenFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	// Taxi
	if err := taxi.RegisterTaxiRoutes(mux, standardMiddleware, app.taxiDeps); err != nil {
		return nil, err
	}

	mux.NotFound = http.HandlerFunc(app.notFound)

	return mux, nil
}
