package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	trending "github.com/goliatone/go-trending/components/trending"
	"github.com/goliatone/go-trending/components/trending/commands"
	"github.com/goliatone/go-trending/components/trending/queries"
)

// Handlers exposes HTTP endpoints backed by the executor.
type Handlers struct {
	API Executor
}

// ErrorBody is the JSON error envelope. Message is safe to show to users.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, trending.ErrPanelNotFound):
		return http.StatusNotFound
	case errors.Is(err, trending.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, trending.ErrNoDragInProgress), errors.Is(err, trending.ErrNoResizeInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Register mounts the handlers on mux below prefix using method patterns.
func (h *Handlers) Register(mux *http.ServeMux, prefix string) {
	mux.HandleFunc("GET "+prefix+"/panels", h.HandleBoard)
	mux.HandleFunc("POST "+prefix+"/panels", h.HandleCreatePanel)
	mux.HandleFunc("POST "+prefix+"/panels/move", h.HandleMovePanel)
	mux.HandleFunc("POST "+prefix+"/panels/refresh", h.HandleRefresh)
	mux.HandleFunc("GET "+prefix+"/panels/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSeries(w, r, trending.ID(r.PathValue("id")))
	})
	mux.HandleFunc("PATCH "+prefix+"/panels/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleUpdatePanel(w, r, trending.ID(r.PathValue("id")))
	})
	mux.HandleFunc("DELETE "+prefix+"/panels/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRemovePanel(w, r, trending.ID(r.PathValue("id")))
	})
	mux.HandleFunc("POST "+prefix+"/panels/{id}/resize", func(w http.ResponseWriter, r *http.Request) {
		h.HandleResizePanel(w, r, trending.ID(r.PathValue("id")))
	})
	mux.HandleFunc("POST "+prefix+"/panels/{id}/view-mode", func(w http.ResponseWriter, r *http.Request) {
		h.HandleCycleViewMode(w, r, trending.ID(r.PathValue("id")))
	})
	mux.HandleFunc("POST "+prefix+"/panels/{id}/units/{unit}/toggle", func(w http.ResponseWriter, r *http.Request) {
		h.HandleToggleUnit(w, r, trending.ID(r.PathValue("id")), trending.ID(r.PathValue("unit")))
	})
}

func (h *Handlers) HandleBoard(w http.ResponseWriter, r *http.Request) {
	panels, err := h.API.Board(r.Context(), queries.BoardInput{Locale: r.URL.Query().Get("locale")})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, panels)
}

func (h *Handlers) HandleSeries(w http.ResponseWriter, r *http.Request, panelID trending.ID) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	snap, err := h.API.Series(r.Context(), queries.SeriesInput{PanelID: panelID, Refresh: refresh})
	if err != nil && snap.Panel.ID == "" {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleCreatePanel(w http.ResponseWriter, r *http.Request) {
	var input commands.CreatePanelInput
	if err := decodeOptional(r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.Actor = actorOr(r, input.Actor)
	var panel trending.Panel
	input.Result = &panel
	if err := h.API.Create(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, panel)
}

// HandleUpdatePanel applies a partial panel payload. When the edit was
// applied locally but could not be persisted, the optimistic snapshot is
// returned with 502 so clients can show the notice and keep the edit.
func (h *Handlers) HandleUpdatePanel(w http.ResponseWriter, r *http.Request, panelID trending.ID) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var snap trending.Snapshot
	err := h.API.Update(r.Context(), commands.UpdatePanelInput{
		Actor:   ActorFromRequest(r),
		PanelID: panelID,
		Payload: payload,
		Result:  &snap,
	})
	if err != nil {
		if snap.Panel.ID == "" {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"snapshot": snap,
			"error":    ErrorBody{Error: err.Error(), Message: trending.UserMessage(err)},
		})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleRemovePanel(w http.ResponseWriter, r *http.Request, panelID trending.ID) {
	if err := h.API.Remove(r.Context(), commands.RemovePanelInput{Actor: ActorFromRequest(r), PanelID: panelID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleMovePanel(w http.ResponseWriter, r *http.Request) {
	var input commands.MovePanelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.Actor = actorOr(r, input.Actor)
	var order []trending.PanelOrder
	input.Result = &order
	if err := h.API.Move(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handlers) HandleResizePanel(w http.ResponseWriter, r *http.Request, panelID trending.ID) {
	var input commands.ResizePanelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input.PanelID = panelID
	input.Actor = actorOr(r, input.Actor)
	var span trending.Span
	input.Result = &span
	if err := h.API.Resize(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"panel_id": panelID, "col_span": span})
}

func (h *Handlers) HandleCycleViewMode(w http.ResponseWriter, r *http.Request, panelID trending.ID) {
	var mode trending.ViewMode
	if err := h.API.CycleViewMode(r.Context(), commands.CycleViewModeInput{
		Actor:   ActorFromRequest(r),
		PanelID: panelID,
		Result:  &mode,
	}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"panel_id":  panelID,
		"view_mode": mode,
		"icons":     mode.Icons(),
	})
}

func (h *Handlers) HandleToggleUnit(w http.ResponseWriter, r *http.Request, panelID, unitID trending.ID) {
	var snap trending.Snapshot
	if err := h.API.ToggleUnit(r.Context(), commands.ToggleUnitInput{PanelID: panelID, UnitID: unitID, Result: &snap}); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var input commands.RefreshPanelInput
	if err := decodeOptional(r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.API.Refresh(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// Identity headers set by upstream auth middleware.
const (
	HeaderActorID  = "X-Actor-ID"
	HeaderUserID   = "X-User-ID"
	HeaderTenantID = "X-Tenant-ID"
)

// ActorFromRequest reads the actor identity headers.
func ActorFromRequest(r *http.Request) commands.Actor {
	return commands.Actor{
		ActorID:  r.Header.Get(HeaderActorID),
		UserID:   r.Header.Get(HeaderUserID),
		TenantID: r.Header.Get(HeaderTenantID),
	}
}

func actorOr(r *http.Request, body commands.Actor) commands.Actor {
	if body != (commands.Actor{}) {
		return body
	}
	return ActorFromRequest(r)
}

// decodeOptional decodes a JSON body, treating an empty body as zero input.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), ErrorBody{Error: err.Error(), Message: trending.UserMessage(err)})
}
