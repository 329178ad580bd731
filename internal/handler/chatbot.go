package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/craftfolio/portfolio-server-go/internal/middleware"
	"github.com/craftfolio/portfolio-server-go/internal/service"
)

type ChatbotHandler struct {
	chatbotService *service.ChatbotService
	requireAuth    func(http.Handler) http.Handler
}

func NewChatbotHandler(chatbotService *service.ChatbotService, requireAuth func(http.Handler) http.Handler) *ChatbotHandler {
	return &ChatbotHandler{
		chatbotService: chatbotService,
		requireAuth:    requireAuth,
	}
}

func (h *ChatbotHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.requireAuth)
	r.Post("/", h.Suggest)
	r.Post("/suggestions", h.Suggest)
	r.Get("/recruiters", h.Recruiters)
	r.Get("/jobs", h.Jobs)

	return r
}

// POST /api/chat/suggestions
func (h *ChatbotHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	suggestions, err := h.chatbotService.Suggest(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, "", suggestions)
}

// GET /api/chat/recruiters
func (h *ChatbotHandler) Recruiters(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", h.chatbotService.Recruiters())
}

// GET /api/chat/jobs
func (h *ChatbotHandler) Jobs(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "", h.chatbotService.Jobs())
}
