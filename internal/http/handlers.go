package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/clubpulse/internal/poll"
	"github.com/sujalbistaa/clubpulse/internal/store"
	"github.com/sujalbistaa/clubpulse/internal/ws"
)

// --- Configuration Constants ---
const (
	voteRateRPS   = 1.0 // 1 vote per second per IP
	voteRateBurst = 3
)

// --- Structs for request binding ---
type CastVoteInput struct {
	// Pointer so index 0 survives the required check.
	OptionIndex *int `json:"optionIndex" binding:"required"`
}

// WsMessage is the envelope pushed to live clients.
type WsMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// --- Rate Limiter ---
type IPRateLimiter struct {
	visitors map[string]*rate.Limiter
	mu       sync.Mutex
	rps      rate.Limit
	burst    int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*rate.Limiter),
		rps:      r,
		burst:    b,
	}
}

func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, exists := rl.visitors[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.rps, rl.burst)
		rl.visitors[ip] = limiter
	}
	return limiter
}

func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.GetLimiter(ip).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please wait."})
			return
		}
		c.Next()
	}
}

// --- Handlers ---
type Env struct {
	Polls *poll.Service
	Hub   *ws.Hub
}

// errorStatus maps the poll error taxonomy onto HTTP statuses.
func errorStatus(err error) int {
	var ve *poll.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, poll.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, poll.ErrOptionsLocked):
		return http.StatusConflict
	case errors.Is(err, poll.ErrPollEnded),
		errors.Is(err, poll.ErrInvalidOption),
		errors.Is(err, poll.ErrDuplicateVote):
		return http.StatusBadRequest
	case errors.As(err, &ve):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		msg = "Something went wrong"
	}
	c.JSON(status, gin.H{"error": msg})
}

func (e *Env) ListPolls(c *gin.Context) {
	in := poll.ListInput{ActiveOnly: true}

	switch c.Query("status") {
	case "active":
		ended := false
		in.Ended = &ended
	case "ended":
		ended := true
		in.Ended = &ended
	}
	if c.Query("includeInactive") == "true" {
		in.ActiveOnly = false
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.Offset = n
		}
	}

	polls, err := e.Polls.List(c.Request.Context(), callerIdentity(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, polls)
}

func (e *Env) GetPoll(c *gin.Context) {
	p, err := e.Polls.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (e *Env) CreatePoll(c *gin.Context) {
	var in poll.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	p, err := e.Polls.Create(c.Request.Context(), callerIdentity(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	e.broadcastMessage(WsMessage{Type: "new_poll", Data: p})
	c.JSON(http.StatusCreated, p)
}

func (e *Env) CastVote(c *gin.Context) {
	var in CastVoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	pollID := c.Param("id")
	total, err := e.Polls.CastVote(c.Request.Context(), callerIdentity(c), pollID, *in.OptionIndex)
	if err != nil {
		fail(c, err)
		return
	}
	payload := gin.H{"id": pollID, "totalVotes": total}
	e.broadcastMessage(WsMessage{Type: "vote", Data: payload})
	c.JSON(http.StatusOK, payload)
}

func (e *Env) GetResults(c *gin.Context) {
	res, err := e.Polls.Results(c.Request.Context(), callerIdentity(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (e *Env) UpdatePoll(c *gin.Context) {
	var in poll.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	p, err := e.Polls.Update(c.Request.Context(), callerIdentity(c), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (e *Env) DeletePoll(c *gin.Context) {
	pollID := c.Param("id")
	if err := e.Polls.Delete(c.Request.Context(), callerIdentity(c), pollID); err != nil {
		fail(c, err)
		return
	}
	e.broadcastMessage(WsMessage{Type: "poll_deleted", Data: gin.H{"id": pollID}})
	c.JSON(http.StatusOK, gin.H{"message": "Poll deleted successfully"})
}

func (e *Env) broadcastMessage(msg WsMessage) {
	if e.Hub == nil {
		return
	}
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshalling WS message: %v", err)
		return
	}
	e.Hub.Broadcast <- jsonMsg
}
