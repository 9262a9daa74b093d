package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/auth"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/export"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/importcsv"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/transaction"
)

func New(
	authenticator Authenticator,
	allowedOrigins []string,
	authV1 *auth.Handler,
	transactionsV1 *transaction.Handler,
	importV1 *importcsv.Handler,
	exportV1 *export.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				authV1.PublicRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireAuth(authenticator))
				authV1.Routes(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(authenticator))

			r.Route("/transactions", func(r chi.Router) {
				transactionsV1.Routes(r)
				r.Route("/import", importV1.Routes)
				r.Route("/export", exportV1.Routes)
			})
		})
	})

	return router
}

// NewServer serves h on addr. Requests inherit ctx, so cancelling it ends long-lived
// streams and lets Shutdown finish.
func NewServer(ctx context.Context, addr string, h http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}
