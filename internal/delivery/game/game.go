package game

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"dotcapture/internal/bootstrap"
	"dotcapture/internal/domain/board"
	domainErrors "dotcapture/internal/errors"
	"dotcapture/internal/httpresponse"
	repo "dotcapture/internal/repository"
	"dotcapture/internal/usecase/asyncgame"
	"dotcapture/internal/usecase/rating"
	"dotcapture/internal/usecase/registry"
	"dotcapture/internal/utils"
)

// GameHandler bridges HTTP/websocket clients and the session registry.
// Identity issuance is external: the gateway authenticates and passes the
// player id in the X-Player-ID header.
type GameHandler struct {
	cfg       bootstrap.Config
	log       *zap.SugaredLogger
	registry  *registry.Registry
	async     *asyncgame.Manager
	ratings   *rating.Service
	snapshots *repo.SnapshotRepository

	mu    sync.Mutex
	conns map[string]map[string]*websocket.Conn // gameID -> playerID -> conn
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewGameHandler(
	cfg bootstrap.Config,
	log *zap.SugaredLogger,
	reg *registry.Registry,
	async *asyncgame.Manager,
	ratings *rating.Service,
	snapshots *repo.SnapshotRepository,
) *GameHandler {
	return &GameHandler{
		cfg:       cfg,
		log:       log,
		registry:  reg,
		async:     async,
		ratings:   ratings,
		snapshots: snapshots,
		conns:     make(map[string]map[string]*websocket.Conn),
	}
}

func playerID(r *http.Request) string {
	if id := r.Header.Get("X-Player-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("player_id")
}

type matchmakingRequest struct {
	IsRanked bool              `json:"is_ranked"`
	Data     map[string]string `json:"data,omitempty"`
}

func (g *GameHandler) HandleJoinMatchmaking(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}

	var req matchmakingRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Error("JSON decode error: ", err)
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := g.registry.AddToMatchmaking(pid, req.Data, req.IsRanked)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	if result.Status == "matched" {
		g.saveSnapshot(r, result.GameID, result.Session)
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, result)
}

func (g *GameHandler) HandleLeaveMatchmaking(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}
	removed := g.registry.RemoveFromMatchmaking(pid)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (g *GameHandler) HandleQueueStats(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.registry.Stats())
}

type newGameRequest struct {
	IsRanked bool `json:"is_ranked"`
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
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

	session, err := g.registry.CreateGame(pid, req.IsRanked)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.log.Infow("game created over http", "game_id", session.ID, "player", pid)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, session)
}

type joinGameRequest struct {
	GameID string `json:"game_id"`
}

func (g *GameHandler) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}

	var req joinGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := g.registry.JoinGame(req.GameID, pid)
	if err != nil {
		g.writeDomainError(w, err)
		return
	}
	g.saveSnapshot(r, session.ID, session)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, session)
}

type moveRequest struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Kind string `json:"kind,omitempty"` // "occupy" (default) or "draw_line"
	X2   int    `json:"x2,omitempty"`
	Y2   int    `json:"y2,omitempty"`
}

type moveBroadcast struct {
	PlayerID      string        `json:"player_id"`
	Move          moveRequest   `json:"move"`
	Captures      []board.Point `json:"captures"`
	ContinuesTurn bool          `json:"continues_turn"`
	CurrentPlayer string        `json:"current_player"`
	GameOver      bool          `json:"game_over"`
	Winner        string        `json:"winner,omitempty"`
}

// HandlePlay upgrades to a websocket and relays moves between the two
// participants of a realtime session.
func (g *GameHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	gameID := r.URL.Query().Get("game_id")
	if pid == "" || gameID == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing game_id or player id")
		return
	}

	session, ok := g.registry.GameInfo(gameID)
	if !ok || !session.HasPlayer(pid) {
		httpresponse.WriteErrorResponse(w, http.StatusNotFound, "game not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Error("upgrade error: ", err)
		return
	}
	g.attach(gameID, pid, conn)

	defer func() {
		conn.Close()
		g.detach(gameID, pid, conn)
		if result := g.registry.HandleDisconnect(pid); result != nil {
			g.notifyForfeit(result)
		}
	}()

	for {
		var req moveRequest
		if err := conn.ReadJSON(&req); err != nil {
			g.log.Infow("websocket closed", "game_id", gameID, "player", pid, "error", err)
			return
		}

		out, err := g.registry.MakeMove(gameID, pid, toMove(req))
		if err != nil {
			_ = conn.WriteJSON(httpresponse.ErrorResponse{ErrorDescription: err.Error()})
			continue
		}

		if s, ok := g.registry.GameInfo(gameID); ok {
			g.saveSnapshot(r, gameID, s)
		}

		g.broadcast(gameID, moveBroadcast{
			PlayerID:      pid,
			Move:          req,
			Captures:      out.Captures,
			ContinuesTurn: out.ContinuesTurn,
			CurrentPlayer: out.CurrentPlayer,
			GameOver:      out.GameOver,
			Winner:        out.Winner,
		})
	}
}

func toMove(req moveRequest) board.Move {
	mv := board.Move{Kind: board.MoveOccupy, X: req.X, Y: req.Y}
	if req.Kind == "draw_line" {
		mv.Kind = board.MoveDrawLine
		mv.X2, mv.Y2 = req.X2, req.Y2
	}
	return mv
}

// HandleGameInfo looks up the realtime representation first and falls
// back to the persistent one, so a client holding a stale id of either
// kind still gets an answer.
func (g *GameHandler) HandleGameInfo(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing game_id")
		return
	}

	if session, ok := g.registry.GameInfo(gameID); ok {
		httpresponse.WriteResponseWithStatus(w, http.StatusOK, session)
		return
	}
	if pid := playerID(r); pid != "" {
		if view, err := g.async.GameInfoFor(gameID, pid); err == nil {
			httpresponse.WriteResponseWithStatus(w, http.StatusOK, view)
			return
		}
	}
	httpresponse.WriteErrorResponse(w, http.StatusNotFound, "game not found")
}

func (g *GameHandler) HandleRating(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.ratings.Rating(pid))
}

func (g *GameHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	var cached []map[string]any
	if ok, err := g.snapshots.CachedLeaderboard(r.Context(), &cached); err == nil && ok {
		httpresponse.WriteResponseWithStatus(w, http.StatusOK, cached)
		return
	}

	entries := g.ratings.Leaderboard(g.cfg.LeaderboardLimit)
	if err := g.snapshots.CacheLeaderboard(r.Context(), entries); err != nil {
		g.log.Error("leaderboard cache write failed: ", err)
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, entries)
}

func (g *GameHandler) HandleMatchHistory(w http.ResponseWriter, r *http.Request) {
	pid := playerID(r)
	if pid == "" {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "missing player id")
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g.ratings.MatchHistory(pid, limit))
}

func (g *GameHandler) attach(gameID, pid string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	peers, ok := g.conns[gameID]
	if !ok {
		peers = make(map[string]*websocket.Conn)
		g.conns[gameID] = peers
	}
	if old, ok := peers[pid]; ok {
		_ = old.WriteMessage(websocket.TextMessage, []byte("replaced by a newer connection"))
		old.Close()
	}
	peers[pid] = conn
}

func (g *GameHandler) detach(gameID, pid string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if peers, ok := g.conns[gameID]; ok && peers[pid] == conn {
		delete(peers, pid)
		if len(peers) == 0 {
			delete(g.conns, gameID)
		}
	}
}

func (g *GameHandler) broadcast(gameID string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for pid, conn := range g.conns[gameID] {
		if err := conn.WriteJSON(payload); err != nil {
			g.log.Errorw("write to peer failed", "game_id", gameID, "player", pid, "error", err)
			conn.Close()
			delete(g.conns[gameID], pid)
		}
	}
}

type forfeitNotice struct {
	GameID        string `json:"game_id"`
	ForfeitWinner string `json:"forfeit_winner"`
	GameOver      bool   `json:"game_over"`
}

func (g *GameHandler) notifyForfeit(result *registry.DisconnectResult) {
	g.broadcast(result.GameID, forfeitNotice{
		GameID:        result.GameID,
		ForfeitWinner: result.ForfeitWinner,
		GameOver:      true,
	})
}

func (g *GameHandler) saveSnapshot(r *http.Request, gameID string, snapshot any) {
	if err := g.snapshots.SaveSnapshot(r.Context(), gameID, snapshot); err != nil {
		g.log.Errorw("snapshot save failed", "game_id", gameID, "error", err)
	}
}

func (g *GameHandler) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domainErrors.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainErrors.ErrAlreadyInGame),
		errors.Is(err, domainErrors.ErrGameLimitReached),
		errors.Is(err, domainErrors.ErrGameFull):
		status = http.StatusConflict
	}
	httpresponse.WriteErrorResponse(w, status, err.Error())
}
