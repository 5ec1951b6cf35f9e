package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cwrk-planet/messaging-service/internal/domain"
	"github.com/cwrk-planet/messaging-service/internal/presence"
	"github.com/cwrk-planet/messaging-service/internal/service"
	httpmw "github.com/cwrk-planet/messaging-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	convSvc *service.ConversationService
	msgSvc  *service.MessageService
	gateSvc *service.GateService
	tracker *presence.Tracker
}

func NewHandler(conv *service.ConversationService, msg *service.MessageService, gate *service.GateService, tracker *presence.Tracker) *Handler {
	return &Handler{
		convSvc: conv,
		msgSvc:  msg,
		gateSvc: gate,
		tracker: tracker,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), ErrorResponse{Error: err.Error(), Reason: reasonOf(err)})
}

// GET /conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	if callerID == 0 {
		writeError(w, domain.ErrUnauthorized)
		return
	}

	items, err := h.convSvc.List(r.Context(), callerID)
	if err != nil {
		slog.Error("handler.ListConversations:", slog.Any("err", err))
		writeError(w, err)
		return
	}

	resp := ConversationsListResponse{Items: make([]ConversationSummaryItem, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, ConversationSummaryItem{
			ID:          it.Conversation.ID,
			CreatedAt:   it.Conversation.CreatedAt,
			Peer:        toContactItem(it.Peer, it.PeerOnline),
			LastMessage: toMessageItemPtr(it.LastMessage),
			UnreadCount: it.UnreadCount,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /conversations/{id}/messages?cursor=&limit=
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	conversationID := chi.URLParam(r, "id")
	cursor := r.URL.Query().Get("cursor")

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	page, err := h.msgSvc.History(r.Context(), callerID, conversationID, cursor, limit)
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			slog.Error("handler.GetMessages:", slog.Any("err", err))
		}
		writeError(w, err)
		return
	}

	resp := MessagesResponse{Items: make([]MessageItem, 0, len(page.Messages)), NextCursor: page.NextCursor}
	for _, m := range page.Messages {
		resp.Items = append(resp.Items, toMessageItem(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	recipientID, err := strconv.ParseInt(req.RecipientID, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid recipient_id"})
		return
	}

	msg, err := h.msgSvc.Send(r.Context(), service.SendInput{
		SenderID:    callerID,
		RecipientID: recipientID,
		ClientID:    req.ClientID,
		Content:     req.Content,
		MediaURL:    req.MediaURL,
		MediaKind:   req.MediaKind,
	})
	if err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			slog.Error("handler.SendMessage:", slog.Any("err", err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageItem(*msg))
}

// POST /conversations/{id}/typing
func (h *Handler) SetTyping(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	conversationID := chi.URLParam(r, "id")

	var req TypingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	if _, err := h.convSvc.Authorize(r.Context(), conversationID, callerID); err != nil {
		writeError(w, err)
		return
	}
	if err := h.tracker.SetTyping(r.Context(), conversationID, callerID, req.IsTyping); err != nil {
		slog.Error("handler.SetTyping:", slog.Any("err", err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GET /conversations/{id}/typing
func (h *Handler) GetTyping(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	conversationID := chi.URLParam(r, "id")

	if _, err := h.convSvc.Authorize(r.Context(), conversationID, callerID); err != nil {
		writeError(w, err)
		return
	}
	peers, err := h.tracker.TypingPeers(r.Context(), conversationID, callerID)
	if err != nil {
		slog.Error("handler.GetTyping:", slog.Any("err", err))
		writeError(w, err)
		return
	}

	resp := TypingResponse{UserIDs: make([]string, 0, len(peers))}
	for _, id := range peers {
		resp.UserIDs = append(resp.UserIDs, strconv.FormatInt(id, 10))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /conversations/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	conversationID := chi.URLParam(r, "id")

	if err := h.convSvc.MarkRead(r.Context(), conversationID, callerID); err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			slog.Error("handler.MarkRead:", slog.Any("err", err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// POST /heartbeat
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	if err := h.tracker.Heartbeat(r.Context(), callerID); err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			slog.Error("handler.Heartbeat:", slog.Any("err", err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GET /contacts/mutual
func (h *Handler) ListMutualContacts(w http.ResponseWriter, r *http.Request) {
	h.listContacts(w, r, h.gateSvc.ListMutualContacts)
}

// GET /contacts/requests — followed by the caller, no follow-back yet.
func (h *Handler) ListOneSidedFollows(w http.ResponseWriter, r *http.Request) {
	h.listContacts(w, r, h.gateSvc.ListOneSidedFollows)
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, callerID int64) ([]domain.Contact, error)) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	contacts, err := list(r.Context(), callerID)
	if err != nil {
		slog.Error("handler.listContacts:", slog.Any("err", err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ContactsResponse{Items: h.toContactItems(contacts)})
}

// POST /contacts/{id}/request
func (h *Handler) RequestFollowBack(w http.ResponseWriter, r *http.Request) {
	callerID := httpmw.UserIDFromCtx(r.Context())
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return
	}

	if err := h.gateSvc.RequestFollowBack(r.Context(), callerID, targetID); err != nil {
		if statusOf(err) == http.StatusInternalServerError {
			slog.Error("handler.RequestFollowBack:", slog.Any("err", err))
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "requested"})
}

func (h *Handler) toContactItems(contacts []domain.Contact) []ContactItem {
	out := make([]ContactItem, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toContactItem(c, h.tracker.IsOnline(c.LastActiveAt)))
	}
	return out
}

func toContactItem(c domain.Contact, online bool) ContactItem {
	return ContactItem{
		UserID:       strconv.FormatInt(c.UserID, 10),
		DisplayName:  c.DisplayName,
		AvatarURL:    c.AvatarURL,
		LastActiveAt: c.LastActiveAt,
		Online:       online,
	}
}

func toMessageItem(m domain.Message) MessageItem {
	item := MessageItem{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       strconv.FormatInt(m.SenderID, 10),
		ClientID:       m.ClientID,
		Content:        m.Content,
		MediaURL:       m.MediaURL,
		CreatedAt:      m.CreatedAt.Truncate(time.Millisecond),
	}
	if m.MediaKind != nil {
		kind := string(*m.MediaKind)
		item.MediaKind = &kind
	}
	return item
}

func toMessageItemPtr(m *domain.Message) *MessageItem {
	if m == nil {
		return nil
	}
	item := toMessageItem(*m)
	return &item
}
