package competitionhandlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	competitionservice "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/application"
	competitionexport "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/export"
	competitionqueue "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/queue"
	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// Enqueuer schedules background runs of the idempotent operations.
type Enqueuer interface {
	EnqueueRefreshRoundCodes(ctx context.Context, actorID string, competitionID uuid.UUID, eventCode string) (competitionqueue.JobInfo, error)
	EnqueueAdvanceCompetitors(ctx context.Context, actorID string, competitorCount int, roundID uuid.UUID) (competitionqueue.JobInfo, error)
}

// CompetitionHandlers serves the competition HTTP API.
type CompetitionHandlers struct {
	service competitionservice.Service
	queue   Enqueuer
	logger  *slog.Logger
}

// NewCompetitionHandlers builds the handlers. A nil queue makes ?async=true
// requests run synchronously.
func NewCompetitionHandlers(service competitionservice.Service, queue Enqueuer, logger *slog.Logger) *CompetitionHandlers {
	return &CompetitionHandlers{service: service, queue: queue, logger: logger}
}

func (h *CompetitionHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed",
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
		writeJSONError(w, status, "internal error")
		return
	}
	writeJSONError(w, status, err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", competitionservice.ErrInvalidArgument, err)
	}
	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a uuid", competitionservice.ErrInvalidArgument, name)
	}
	return id, nil
}

func async(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	return v
}

// resolveCompetition maps a competition id or WCA id onto the stored competition.
func (h *CompetitionHandlers) resolveCompetition(r *http.Request) (*competitiondb.Competition, error) {
	return h.service.GetCompetition(r.Context(), chi.URLParam(r, "competitionRef"))
}

// resolveManagedCompetition resolves the competition of a mutating request.
// Anonymous callers are turned away before the lookup so a missing
// competition is not revealed to them.
func (h *CompetitionHandlers) resolveManagedCompetition(r *http.Request) (*competitiondb.Competition, error) {
	if ActorID(r.Context()) == "" {
		return nil, competitionservice.ErrUnauthenticated
	}
	return h.resolveCompetition(r)
}

type createCompetitionRequest struct {
	Name string `json:"name"`
}

func (h *CompetitionHandlers) HandleCreateCompetition(w http.ResponseWriter, r *http.Request) {
	var req createCompetitionRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.service.CreateCompetition(r.Context(), ActorID(r.Context()), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *CompetitionHandlers) HandleGetCompetition(w http.ResponseWriter, r *http.Request) {
	competition, err := h.resolveCompetition(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, competition)
}

func (h *CompetitionHandlers) HandleUpdateCompetition(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := decodeBody(w, r, &fields); err != nil {
		h.fail(w, r, err)
		return
	}
	competition, err := h.service.UpdateCompetition(r.Context(), ActorID(r.Context()), chi.URLParam(r, "competitionRef"), fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, competition)
}

func (h *CompetitionHandlers) HandleDeleteCompetition(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCompetition(r.Context(), ActorID(r.Context()), chi.URLParam(r, "competitionRef")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CompetitionHandlers) HandleListRounds(w http.ResponseWriter, r *http.Request) {
	competition, err := h.resolveCompetition(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rounds, err := h.service.ListRounds(r.Context(), competition.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (h *CompetitionHandlers) HandleAddRound(w http.ResponseWriter, r *http.Request) {
	competition, err := h.resolveManagedCompetition(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	round, err := h.service.AddRound(r.Context(), ActorID(r.Context()), competition.ID, chi.URLParam(r, "eventCode"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

func (h *CompetitionHandlers) HandleAddNonEventRound(w http.ResponseWriter, r *http.Request) {
	var input competitionservice.NonEventRound
	if err := decodeBody(w, r, &input); err != nil {
		h.fail(w, r, err)
		return
	}
	competition, err := h.resolveManagedCompetition(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	round, err := h.service.AddNonEventRound(r.Context(), ActorID(r.Context()), competition.ID, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, round)
}

func (h *CompetitionHandlers) HandleRefreshRoundCodes(w http.ResponseWriter, r *http.Request) {
	competition, err := h.resolveManagedCompetition(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	actorID := ActorID(r.Context())
	eventCode := chi.URLParam(r, "eventCode")

	if async(r) && h.queue != nil {
		if err := h.service.Authorize(r.Context(), actorID, competition.ID.String()); err != nil {
			h.fail(w, r, err)
			return
		}
		job, err := h.queue.EnqueueRefreshRoundCodes(r.Context(), actorID, competition.ID, eventCode)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
		return
	}

	rounds, err := h.service.RefreshRoundCodes(r.Context(), actorID, competition.ID, eventCode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (h *CompetitionHandlers) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuidParam(r, "roundID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	round, err := h.service.GetRound(r.Context(), roundID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (h *CompetitionHandlers) HandleUpdateRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuidParam(r, "roundID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var fields map[string]json.RawMessage
	if err := decodeBody(w, r, &fields); err != nil {
		h.fail(w, r, err)
		return
	}
	round, err := h.service.UpdateRound(r.Context(), ActorID(r.Context()), roundID, fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (h *CompetitionHandlers) HandleRemoveRound(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuidParam(r, "roundID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.RemoveRound(r.Context(), ActorID(r.Context()), roundID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type advanceRequest struct {
	CompetitorCount int `json:"competitorCount"`
}

func (h *CompetitionHandlers) HandleAdvanceCompetitors(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuidParam(r, "roundID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req advanceRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	actorID := ActorID(r.Context())

	if async(r) && h.queue != nil {
		round, err := h.service.GetRound(r.Context(), roundID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.service.Authorize(r.Context(), actorID, round.CompetitionID.String()); err != nil {
			h.fail(w, r, err)
			return
		}
		job, err := h.queue.EnqueueAdvanceCompetitors(r.Context(), actorID, req.CompetitorCount, roundID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
		return
	}

	outcome, err := h.service.AdvanceCompetitorsFromRound(r.Context(), actorID, req.CompetitorCount, roundID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *CompetitionHandlers) HandleListResults(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuidParam(r, "roundID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	results, err := h.service.ListResults(r.Context(), roundID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *CompetitionHandlers) HandleExportRoster(w http.ResponseWriter, r *http.Request) {
	roundID, err := uuidParam(r, "roundID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	round, err := h.service.GetRound(r.Context(), roundID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	results, err := h.service.ListResults(r.Context(), roundID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := competitionexport.Roster(round, results)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", competitionexport.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="roster-%s.xlsx"`, roundID))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to write roster", attr.Error(err))
	}
}

func (h *CompetitionHandlers) HandlePutGroup(w http.ResponseWriter, r *http.Request) {
	var group competitiondb.Group
	if err := decodeBody(w, r, &group); err != nil {
		h.fail(w, r, err)
		return
	}
	group.ID = uuid.Nil
	stored, err := h.service.PutGroup(r.Context(), ActorID(r.Context()), &group)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}
