package api

import (
	"net/http"

	"givebox/internal/auth"
	"givebox/internal/db"
	"givebox/internal/model"
	"givebox/internal/pubsub"
	"givebox/internal/schema"
	"givebox/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// JobClient enqueues background work from HTTP handlers.
type JobClient interface {
	EnqueueBroadcast(botID int64, userIDs []int64, text string) error
}

type Dependencies struct {
	DB        *db.Pool
	Claims    *service.ClaimService
	Approvals *service.ApprovalService
	Bus       *pubsub.Bus
	JWT       *auth.JWTConfig
	JobClient JobClient
	Log       *zap.Logger

	// botCache resolves webhook tokens without a database round trip per
	// update.
	botCache *expirable.LRU[string, model.Bot]
	schemas  *schema.Compiler
}

func Routes(d Dependencies) http.Handler {
	d.botCache = expirable.NewLRU[string, model.Bot](64, nil, botCacheTTL)
	d.schemas = schema.NewCompilerWithCache(16)

	r := chi.NewRouter()
	r.Use(RequestLogger(d.Log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Telegram delivers updates here; the token identifies the bot
	r.Post("/webhook/{token}", d.handleWebhook)

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(d.JWT.RequireAdmin)

		r.Get("/attempts", d.listPendingAttempts)
		r.Post("/attempts/{id}/approve", d.approveAttempt)
		r.Post("/attempts/{id}/reject", d.rejectAttempt)

		r.Post("/giveaways", d.createGiveaway)
		r.Get("/giveaways", d.listGiveaways)

		r.Get("/users", d.listUsers)
		r.Post("/broadcasts", d.createBroadcast)
	})

	return r
}
