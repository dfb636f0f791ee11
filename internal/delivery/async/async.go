package async

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"dotcapture/internal/bootstrap"
	domainErrors "dotcapture/internal/errors"
	"dotcapture/internal/httpresponse"
	repo "dotcapture/internal/repository"
	"dotcapture/internal/usecase/asyncgame"
	"dotcapture/internal/utils"
)

// AsyncHandler exposes the persistent, deadline-based games over HTTP.
type AsyncHandler struct {
	cfg       bootstrap.Config
	log       *zap.SugaredLogger
	manager   *asyncgame.Manager
	snapshots *repo.SnapshotRepository
}

func NewAsyncHandler(cfg bootstrap.Config, log *zap.SugaredLogger, manager *asyncgame.Manager, snapshots *repo.SnapshotRepository) *AsyncHandler {
	return &AsyncHandler{cfg: cfg, log: log, manager: manager, snapshots: snapshots}
}

func playerID(r *http.Request) string {
	if id := r.Header.Get("X-Player-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("player_id")
}

type newGameRequest struct {
	OpponentID string `json:"opponent_id"`
	IsRanked   bool   `json:"is_ranked"`
}

func (h *AsyncHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}

	var req newGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OpponentID == "" || req.OpponentID == pid {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "invalid opponent id")
		return
	}

	g, err := h.manager.CreateGame(pid, req.OpponentID, req.IsRanked)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.saveSnapshot(r, g.ID, g)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g)
}

type moveRequest struct {
	GameID string `json:"game_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

func (h *AsyncHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}

	var req moveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.manager.MakeMove(req.GameID, pid, req.X, req.Y)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	h.saveSnapshot(r, req.GameID, result.Game)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, result)
}

func (h *AsyncHandler) HandleMyGames(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, h.manager.PlayerGames(pid))
}

func (h *AsyncHandler) HandleGameInfo(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	gameID := r.URL.Query().Get("game_id")
	if pid == "" || gameID == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing game_id or player id")
		return
	}

	view, err := h.manager.GameInfoFor(gameID, pid)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, view)
}

type resignRequest struct {
	GameID string `json:"game_id"`
}

func (h *AsyncHandler) HandleResign(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}

	var req resignRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.manager.Resign(req.GameID, pid); err != nil {
		h.writeDomainError(w, err)
		return
	}
	if g, ok := h.manager.Game(req.GameID); ok {
		h.saveSnapshot(r, g.ID, g)
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]bool{"resigned": true})
}

func (h *AsyncHandler) saveSnapshot(r *http.Request, gameID string, snapshot any) {
	if err := h.snapshots.SaveSnapshot(r.Context(), gameID, snapshot); err != nil {
		h.log.Errorw("snapshot save failed", "game_id", gameID, "error", err)
	}
}

func (h *AsyncHandler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domainErrors.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainErrors.ErrGameLimitReached):
		status = http.StatusConflict
	}
	httpresponse.WriteErrorResponse(w, status, err.Error())
}
