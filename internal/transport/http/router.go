package http

import (
	"net/http"
	"time"

	httpmw "github.com/cwrk-planet/messaging-service/internal/transport/http/middleware"
	"github.com/cwrk-planet/messaging-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, identity httpmw.IdentityGate, tracker httpmw.Heartbeater) http.Handler {
	r := chi.NewRouter()
	r.Use(httputil.MiddlewareRequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(httputil.MiddlewareLogging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", httputil.HeaderRequestID},
		AllowCredentials: false,
	}))

	// Все маршруты требуют живую сессию
	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(identity))
		pr.Use(httpmw.HeartbeatMiddleware(tracker))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/conversations", func(cr chi.Router) {
			cr.Get("/", h.ListConversations)

			cr.Route("/{id}", func(rr chi.Router) {
				rr.Get("/messages", h.GetMessages)
				rr.Post("/typing", h.SetTyping)
				rr.Get("/typing", h.GetTyping)
				rr.Post("/read", h.MarkRead)
			})
		})

		pr.Post("/messages", h.SendMessage)
		pr.Post("/heartbeat", h.Heartbeat)

		pr.Route("/contacts", func(cr chi.Router) {
			cr.Get("/mutual", h.ListMutualContacts)
			cr.Get("/requests", h.ListOneSidedFollows)
			cr.Post("/{id}/request", h.RequestFollowBack)
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
