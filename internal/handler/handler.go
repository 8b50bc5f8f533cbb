package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/liorazar/cashcoach/internal/config"
	"github.com/liorazar/cashcoach/internal/conversation"
	"github.com/liorazar/cashcoach/internal/integrations/whatsapp"
	"github.com/liorazar/cashcoach/internal/models"
	"github.com/liorazar/cashcoach/internal/service"
	"github.com/liorazar/cashcoach/internal/utils"
	"github.com/sirupsen/logrus"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20

// MediaDownloader resolves a WhatsApp media ID to its content.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, error)
}

// Transcriber turns an audio attachment into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// StatementImporter ingests a CSV bank statement for the user behind a phone
// number.
type StatementImporter interface {
	ImportStatement(ctx context.Context, phone string, data []byte) (int, error)
}

type Handler struct {
	svc         *service.Service
	router      *conversation.Router
	media       MediaDownloader
	transcriber Transcriber
	importer    StatementImporter
	cfg         *config.Config
	log         *logrus.Logger
}

func NewHandler(svc *service.Service, router *conversation.Router, media MediaDownloader, transcriber Transcriber, importer StatementImporter, cfg *config.Config, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, router: router, media: media, transcriber: transcriber, importer: importer, cfg: cfg, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}
	user, err := h.svc.Register(req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	token, err := h.svc.Login(req.Email, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// VerifyWebhook answers the Cloud API subscription handshake
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.cfg.WhatsAppVerifyToken {
		w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	http.Error(w, "Verification failed", http.StatusForbidden)
}

// ReceiveWebhook ingests inbound WhatsApp messages. The Cloud API expects a
// fast 200; message handling failures are logged, not surfaced.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if !utils.VerifySignature(body, r.Header.Get("X-Hub-Signature-256"), h.cfg.WhatsAppAppSecret) {
		http.Error(w, "Invalid signature", http.StatusForbidden)
		return
	}

	inbound, err := whatsapp.ParseWebhook(body)
	if err != nil {
		h.log.Errorf("Failed to parse webhook: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	for _, in := range inbound {
		switch in.Kind {
		case whatsapp.InboundAudio:
			in = h.transcribeVoiceNote(r.Context(), in)
		case whatsapp.InboundDocument:
			h.importStatement(r.Context(), in)
		}
		if err := h.router.HandleInbound(r.Context(), in); err != nil {
			h.log.Errorf("Failed to handle message from %s: %v", in.Phone, err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// transcribeVoiceNote converts an audio message to a text one. On failure the
// message passes through untranscribed and the state handler asks for text.
func (h *Handler) transcribeVoiceNote(ctx context.Context, in whatsapp.Inbound) whatsapp.Inbound {
	if h.media == nil || h.transcriber == nil || in.MediaID == "" {
		return in
	}
	audio, err := h.media.DownloadMedia(ctx, in.MediaID)
	if err != nil {
		h.log.Errorf("Failed to download voice note %s: %v", in.MediaID, err)
		return in
	}
	text, err := h.transcriber.Transcribe(ctx, audio, "voice-note.ogg")
	if err != nil {
		h.log.Errorf("Failed to transcribe voice note %s: %v", in.MediaID, err)
		return in
	}
	in.Kind = whatsapp.InboundText
	in.Text = text
	return in
}

// importStatement ingests a CSV statement attachment before the message is
// routed, so the data-collection reply reflects stored transactions. Other
// document types are acknowledged but not parsed.
func (h *Handler) importStatement(ctx context.Context, in whatsapp.Inbound) {
	if h.media == nil || h.importer == nil || in.MediaID == "" {
		return
	}
	if !strings.HasSuffix(strings.ToLower(in.Filename), ".csv") {
		h.log.Infof("Skipping unsupported statement format %q from %s", in.Filename, in.Phone)
		return
	}
	data, err := h.media.DownloadMedia(ctx, in.MediaID)
	if err != nil {
		h.log.Errorf("Failed to download statement %s: %v", in.MediaID, err)
		return
	}
	count, err := h.importer.ImportStatement(ctx, in.Phone, data)
	if err != nil {
		h.log.Errorf("Failed to import statement %s: %v", in.MediaID, err)
		return
	}
	h.log.Infof("Imported %d transactions from %q for %s", count, in.Filename, in.Phone)
}

// GetBudget returns the budget for the month in the query, current month by
// default.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	view, err := h.svc.GetBudget(r.Context(), month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// CreateBudget stores a monthly budget plan
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month      string                  `json:"month"`
		Categories []models.BudgetCategory `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Month == "" {
		req.Month = time.Now().Format("2006-01")
	}
	budget, err := h.svc.CreateBudget(r.Context(), req.Month, req.Categories)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, budget)
}

// ApproveExpense confirms a pending transaction
func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}
	var req struct {
		Category string `json:"category"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	txn, err := h.svc.ApproveExpense(r.Context(), txnID, req.Category)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// RejectExpense dismisses a pending transaction
func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	txnID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return
	}
	txn, err := h.svc.RejectExpense(r.Context(), txnID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// ListGoals returns the authenticated user's goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.svc.ListGoals(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

// CreateGoal stores a new goal and returns the rebalanced allocations
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var goal models.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	result, err := h.svc.CreateGoal(r.Context(), &goal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// UpdateGoal edits a goal and returns the rebalanced allocations
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	goalID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid goal ID", http.StatusBadRequest)
		return
	}
	var goal models.Goal
	if err := json.NewDecoder(r.Body).Decode(&goal); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	goal.ID = goalID
	result, err := h.svc.UpdateGoal(r.Context(), &goal)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RecalculateAllocations reruns the goal balancer
func (h *Handler) RecalculateAllocations(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RecalculateAllocations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetProfile returns the authenticated user's profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetProfile(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile edits the self-declared financial profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req service.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := h.svc.UpdateProfile(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetStats returns dashboard analytics for the authenticated user
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetForecast returns the stored income forecast
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	forecasts, err := h.svc.GetForecast(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, forecasts)
}

// RefreshForecast recomputes and stores the income forecast
func (h *Handler) RefreshForecast(w http.ResponseWriter, r *http.Request) {
	forecasts, err := h.svc.RefreshForecast(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, forecasts)
}
