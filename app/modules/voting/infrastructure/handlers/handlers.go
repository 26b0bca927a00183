package votinghandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/clipclash/clipclash-backend/app/models"
	votingservice "github.com/clipclash/clipclash-backend/app/modules/voting/application"
	"github.com/clipclash/clipclash-backend/app/shared/attr"
)

// VotingHandlers exposes the voting service over HTTP.
type VotingHandlers struct {
	service votingservice.Service
	logger  *slog.Logger
}

func NewVotingHandlers(service votingservice.Service, logger *slog.Logger) *VotingHandlers {
	return &VotingHandlers{
		service: service,
		logger:  logger,
	}
}

type voteRequest struct {
	VoterID string `json:"voter_id"`
	ItemID  string `json:"item_id"`
}

type voteResponse struct {
	Accepted bool   `json:"accepted"`
	Weight   int64  `json:"weight,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type countsResponse struct {
	Counts map[string]countEntry `json:"counts"`
}

type countEntry struct {
	Count         int64 `json:"count"`
	WeightedScore int64 `json:"weighted_score"`
}

func (h *VotingHandlers) parseVoteRequest(w http.ResponseWriter, r *http.Request) (models.VoterID, models.ItemID, bool) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return "", models.ItemID{}, false
	}
	if req.VoterID == "" {
		http.Error(w, "voter_id is required", http.StatusBadRequest)
		return "", models.ItemID{}, false
	}
	itemUUID, err := uuid.Parse(req.ItemID)
	if err != nil {
		http.Error(w, "item_id must be a valid UUID", http.StatusBadRequest)
		return "", models.ItemID{}, false
	}
	return models.VoterID(req.VoterID), models.ItemID(itemUUID), true
}

// CastVote handles POST /api/votes.
func (h *VotingHandlers) CastVote(w http.ResponseWriter, r *http.Request) {
	voterID, itemID, ok := h.parseVoteRequest(w, r)
	if !ok {
		return
	}

	res, err := h.service.CastVote(r.Context(), voterID, itemID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "cast vote failed",
			attr.Error(err),
			attr.String("voter_id", string(voterID)),
		)
		http.Error(w, "failed to record vote", http.StatusInternalServerError)
		return
	}

	if res.IsFailure() {
		writeJSON(w, rejectionStatus(res.Failure.Reason), voteResponse{
			Accepted: false,
			Reason:   string(res.Failure.Reason),
		})
		return
	}

	writeJSON(w, http.StatusCreated, voteResponse{
		Accepted: true,
		Weight:   res.Success.Weight,
	})
}

// RetractVote handles DELETE /api/votes.
func (h *VotingHandlers) RetractVote(w http.ResponseWriter, r *http.Request) {
	voterID, itemID, ok := h.parseVoteRequest(w, r)
	if !ok {
		return
	}

	res, err := h.service.RetractVote(r.Context(), voterID, itemID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "retract vote failed",
			attr.Error(err),
			attr.String("voter_id", string(voterID)),
		)
		http.Error(w, "failed to retract vote", http.StatusInternalServerError)
		return
	}

	if res.IsFailure() {
		writeJSON(w, rejectionStatus(res.Failure.Reason), voteResponse{
			Accepted: false,
			Reason:   string(res.Failure.Reason),
		})
		return
	}

	writeJSON(w, http.StatusOK, voteResponse{Accepted: true})
}

// GetCounts handles GET /api/counts?item_id=<uuid>&item_id=<uuid>.
func (h *VotingHandlers) GetCounts(w http.ResponseWriter, r *http.Request) {
	rawIDs := r.URL.Query()["item_id"]
	if len(rawIDs) == 0 {
		http.Error(w, "at least one item_id is required", http.StatusBadRequest)
		return
	}

	itemIDs := make([]models.ItemID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "item_id must be a valid UUID", http.StatusBadRequest)
			return
		}
		itemIDs = append(itemIDs, models.ItemID(id))
	}

	totals, err := h.service.GetCounts(r.Context(), itemIDs)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "get counts failed", attr.Error(err))
		http.Error(w, "failed to read counts", http.StatusInternalServerError)
		return
	}

	resp := countsResponse{Counts: make(map[string]countEntry, len(totals))}
	for id, t := range totals {
		resp.Counts[id.String()] = countEntry{
			Count:         t.Count,
			WeightedScore: t.WeightedScore,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// rejectionStatus maps a business rejection to an HTTP status. Rejections are
// expected outcomes, so none of them map to 5xx.
func rejectionStatus(reason votingservice.ReasonCode) int {
	switch reason {
	case votingservice.ReasonUserBanned:
		return http.StatusForbidden
	case votingservice.ReasonAlreadyVoted:
		return http.StatusConflict
	case votingservice.ReasonVoteLimitReached:
		return http.StatusTooManyRequests
	case votingservice.ReasonVoteNotFound:
		return http.StatusNotFound
	case votingservice.ReasonVotingExpired:
		return http.StatusGone
	default:
		return http.StatusUnprocessableEntity
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
