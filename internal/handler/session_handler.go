package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/codeclash/arena-backend/internal/middleware"
	"github.com/codeclash/arena-backend/internal/model"
	"github.com/codeclash/arena-backend/internal/response"
	"github.com/codeclash/arena-backend/internal/service"
	"github.com/codeclash/arena-backend/internal/validator"
)

// SessionHandler handles matchmaking and session lifecycle endpoints.
type SessionHandler struct {
	matchmaker     *service.MatchmakerService
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(matchmaker *service.MatchmakerService, sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{
		matchmaker:     matchmaker,
		sessionService: sessionService,
	}
}

// JoinRandom godoc
// POST /api/v1/session/random
// Matches the player into a waiting random session or opens a new one.
func (h *SessionHandler) JoinRandom(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.matchmaker.JoinRandom(c.Request.Context(), claims.UserID, req.GameType)
	if err != nil {
		h.failMatchmaking(c, session, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// CreateRoom godoc
// POST /api/v1/session/room
// Opens a private waiting session with a shareable room code.
func (h *SessionHandler) CreateRoom(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.matchmaker.CreateRoom(c.Request.Context(), claims.UserID, req.GameType)
	if err != nil {
		h.failMatchmaking(c, session, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": session})
}

// JoinRoom godoc
// POST /api/v1/session/room/:code/join
// Joins the waiting session behind a room code.
func (h *SessionHandler) JoinRoom(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, err := h.matchmaker.JoinRoom(c.Request.Context(), claims.UserID, c.Param("code"))
	if err != nil {
		h.failMatchmaking(c, session, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetActive godoc
// GET /api/v1/session/active
// Returns the player's current waiting/ongoing session, if any.
func (h *SessionHandler) GetActive(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	session, err := h.sessionService.GetActive(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Success(c, http.StatusOK, gin.H{"session": nil})
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetSession godoc
// GET /api/v1/session/:session_id
// Returns the session snapshot — the state clients reconcile against.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// SubmitAnswer godoc
// POST /api/v1/session/:session_id/answer
// Submits one answer: judged code for coding sessions, a question answer
// for quiz sessions.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var (
		result *service.AnswerResult
		err    error
	)
	switch {
	case req.QuestionID != nil && req.OptionIndex != nil:
		result, err = h.sessionService.SubmitQuizAnswer(
			c.Request.Context(), sessionID, claims.UserID, *req.QuestionID, *req.OptionIndex)
	case req.Code != "":
		result, err = h.sessionService.SubmitCoding(
			c.Request.Context(), sessionID, claims.UserID, req.Code, req.Language)
	default:
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	if err != nil {
		h.failLifecycle(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Finish godoc
// POST /api/v1/session/:session_id/finish
// Marks the player finished; the session ends once everyone still in the
// room has finished.
func (h *SessionHandler) Finish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Finish(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Leave godoc
// POST /api/v1/session/:session_id/leave
// Withdraws the player; an ongoing duel is forfeited to the opponent.
func (h *SessionHandler) Leave(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, ok := h.parseSessionID(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Leave(c.Request.Context(), sessionID, claims.UserID)
	if err != nil {
		h.failLifecycle(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// failMatchmaking maps matchmaking errors to responses. AlreadyInSession is
// benign and carries the existing session so clients can resume it.
func (h *SessionHandler) failMatchmaking(c *gin.Context, session *model.Session, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyInSession):
		response.FailWithData(c, http.StatusConflict, response.ErrAlreadyInSession, gin.H{"session": session})
	case errors.Is(err, service.ErrRoomNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrRoomNotFound)
	case errors.Is(err, service.ErrRoomFull):
		response.Fail(c, http.StatusConflict, response.ErrRoomFull)
	case errors.Is(err, service.ErrRoomAlreadyStarted):
		response.Fail(c, http.StatusConflict, response.ErrRoomStarted)
	case errors.Is(err, service.ErrNoContent):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrNoContent)
	case errors.Is(err, service.ErrMatchmakingBusy):
		response.Fail(c, http.StatusConflict, response.ErrTryAgain)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func (h *SessionHandler) failLifecycle(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, service.ErrNotAParticipant):
		response.Fail(c, http.StatusForbidden, response.ErrNotAParticipant)
	case errors.Is(err, service.ErrSessionNotOngoing):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotOngoing)
	case errors.Is(err, service.ErrQuestionAlreadyAnswered):
		response.Fail(c, http.StatusConflict, response.ErrQuestionAnswered)
	case errors.Is(err, service.ErrQuestionNotInSession):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrAnswerTypeMismatch):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, service.ErrAnswerAfterDeadline):
		response.Fail(c, http.StatusConflict, response.ErrAfterDeadline)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
