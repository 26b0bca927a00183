package advancementhandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	advancementservice "github.com/clipclash/clipclash-backend/app/modules/advancement/application"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
)

// AdvancementHandlers exposes the administrative advance override.
type AdvancementHandlers struct {
	service advancementservice.Service
	logger  *slog.Logger
}

func NewAdvancementHandlers(service advancementservice.Service, logger *slog.Logger) *AdvancementHandlers {
	return &AdvancementHandlers{
		service: service,
		logger:  logger,
	}
}

type advanceResponse struct {
	Outcome        string `json:"outcome"`
	SeasonID       string `json:"season_id,omitempty"`
	SlotID         string `json:"slot_id,omitempty"`
	WinnerItemID   string `json:"winner_item_id,omitempty"`
	Eliminated     int64  `json:"eliminated,omitempty"`
	NextSlotID     string `json:"next_slot_id,omitempty"`
	SeasonFinished bool   `json:"season_finished,omitempty"`
}

// AdvanceSlot handles POST /api/admin/advance.
func (h *AdvancementHandlers) AdvanceSlot(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.AdvanceSlot(r.Context(), advancementservice.TriggerManual)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "manual advance failed",
			attr.String("outcome", string(res.Outcome)),
			attr.Error(err),
		)
		http.Error(w, "advancement failed", http.StatusInternalServerError)
		return
	}

	resp := advanceResponse{
		Outcome:        string(res.Outcome),
		Eliminated:     res.Eliminated,
		SeasonFinished: res.SeasonFinished,
	}
	if !res.SeasonID.IsZero() {
		resp.SeasonID = res.SeasonID.String()
	}
	if !res.SlotID.IsZero() {
		resp.SlotID = res.SlotID.String()
	}
	if !res.WinnerItemID.IsZero() {
		resp.WinnerItemID = res.WinnerItemID.String()
	}
	if res.NextSlotID != nil {
		resp.NextSlotID = res.NextSlotID.String()
	}

	status := http.StatusOK
	if res.Outcome == advancementservice.OutcomeConflict {
		status = http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
