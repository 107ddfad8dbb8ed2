package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robit-auth/internal/application/credential"
	"github.com/robit-auth/internal/application/invite"
	"github.com/robit-auth/internal/application/registration"
	"github.com/robit-auth/internal/config"
	"github.com/robit-auth/internal/transport/http/handler"
	appmiddleware "github.com/robit-auth/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmiddleware.Logger(deps.Logger))
	r.Use(appmiddleware.Recoverer(deps.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	inviteSvc := invite.NewService(invite.ServiceDeps{
		Store:  deps.Stores.Invites,
		Secret: cfg.InviteSecret,
	})
	registrationSvc := registration.NewService(registration.ServiceDeps{
		Invites:          deps.Stores.Invites,
		Pending:          deps.Stores.Pending,
		Codes:            deps.Stores.Codes,
		Accounts:         deps.Accounts,
		Mailer:           deps.Mailer,
		BcryptCost:       cfg.BcryptCost,
		SingleUseInvites: cfg.InviteSingleUse,
		Brand:            cfg.Mail.FromName,
		Logger:           deps.Logger,
	})
	credentialSvc := credential.NewService(deps.Accounts)

	healthH := handler.NewHealthHandler()
	inviteH := handler.NewInviteHandler(inviteSvc)
	registrationH := handler.NewRegistrationHandler(registrationSvc)
	credentialH := handler.NewCredentialHandler(credentialSvc)
	pageH := handler.NewPageHandler(inviteSvc, registrationSvc, cfg.Mail.FromName)

	r.Get("/health", healthH.Ping)

	r.Post("/code", inviteH.Issue)
	r.Post("/register", registrationH.Register)
	r.Post("/verify-email", registrationH.VerifyEmail)

	// Path-based credentials leak into access logs of any proxy in front of
	// this service. Kept for existing clients; new clients use POST /userpass.
	r.Get("/userpass/{username}/{password}", credentialH.CheckPath)
	r.Post("/userpass", credentialH.CheckBody)

	r.Get("/verify/{email}", pageH.Verify)
	r.Get("/{code}", pageH.Register)

	return r
}
