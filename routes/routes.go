package routes

import (
	"net/http"

	_ "github.com/dickygaluhkrnwn/clashub-nextjs-sub000/docs"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/handlers"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/middleware"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers groups every HTTP handler mounted by SetupRoutes.
type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Clan        *handlers.ClanHandler
	JoinRequest *handlers.JoinRequestHandler
	Tournament  *handlers.TournamentHandler
	Participant *handlers.ParticipantHandler
	Bracket     *handlers.BracketHandler
	Match       *handlers.MatchHandler
	Post        *handlers.PostHandler
	WebSocket   *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, h Handlers, auth *middleware.Authenticator, allowedOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
	})

	router.Route("/users", func(r chi.Router) {
		r.With(auth.Optional).Get("/{userID}", h.User.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Get("/me", h.User.GetMe)
			r.Patch("/me", h.User.UpdateMe)
			r.Post("/me/avatar", h.User.UploadAvatar)
			r.With(middleware.RequireRole(models.RoleAdmin)).Patch("/{userID}/role", h.User.SetRole)
		})
	})

	router.Route("/clans", func(r chi.Router) {
		r.Get("/{clanID}", h.Clan.GetClan)
		r.Get("/{clanID}/snapshot", h.Clan.GetSnapshot)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", h.Clan.LinkClan)
			r.Patch("/{clanID}/members/{userID}/role", h.Clan.ChangeMemberRole)
			r.Delete("/{clanID}/members/{userID}", h.Clan.KickMember)
			r.Post("/{clanID}/sync", h.Clan.Sync)
			r.Post("/{clanID}/join-requests", h.JoinRequest.Submit)
			r.Get("/{clanID}/join-requests", h.JoinRequest.List)
		})
	})

	router.Route("/join-requests/{requestID}", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Post("/approve", h.JoinRequest.Approve)
		r.Post("/reject", h.JoinRequest.Reject)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", h.Tournament.ListHandler)
		r.With(auth.Authenticate, middleware.RequireRole(models.RoleOrganizer, models.RoleAdmin)).
			Post("/", h.Tournament.CreateHandler)

		r.Route("/{tournamentID}", func(r chi.Router) {
			r.Get("/", h.Tournament.GetByIDHandler)
			r.Get("/teams", h.Participant.ListTeams)
			r.Get("/bracket", h.Bracket.Get)
			r.Get("/matches/{matchID}", h.Match.GetMatch)

			r.Group(func(r chi.Router) {
				r.Use(auth.Authenticate)

				r.Put("/", h.Tournament.UpdateDetailsHandler)
				r.Patch("/status", h.Tournament.UpdateStatusHandler)
				r.Post("/logo", h.Tournament.UploadLogoHandler)

				r.Post("/teams", h.Participant.RegisterTeam)
				r.Patch("/teams/{teamID}/status", h.Participant.UpdateTeamStatus)
				r.Delete("/teams/{teamID}", h.Participant.WithdrawTeam)

				r.Post("/bracket", h.Bracket.Generate)

				r.Patch("/matches/{matchID}/schedule", h.Match.Schedule)
				r.Post("/matches/{matchID}/start", h.Match.Start)
				r.Post("/matches/{matchID}/winner", h.Match.ReportWinner)
			})
		})
	})

	router.Route("/posts", func(r chi.Router) {
		r.Get("/", h.Post.List)
		r.Get("/{slug}", h.Post.GetBySlug)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", h.Post.Create)
			r.Delete("/{slug}", h.Post.Delete)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", h.WebSocket.ServeWs)
}
