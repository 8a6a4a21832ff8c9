package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/worklink/api-go/apperrors"
	"github.com/worklink/api-go/services"
	"github.com/worklink/api-go/utils"
)

// ConnectionAPI is what the HTTP layer needs from the connection service.
type ConnectionAPI interface {
	SendConnectionRequest(ctx context.Context, requesterID, addresseeID uint, message string) (uint, error)
	AcceptConnectionRequest(ctx context.Context, connectionID, callerID uint) error
	RejectConnectionRequest(ctx context.Context, connectionID, callerID uint) error
	WithdrawConnectionRequest(ctx context.Context, connectionID, callerID uint) error
	RemoveConnection(ctx context.Context, connectionID, callerID uint) error
	BlockUser(ctx context.Context, callerID, targetID uint) error
	GetConnectionStatus(ctx context.Context, userA, userB uint) (services.ConnectionStatus, error)
	GetMutualConnections(ctx context.Context, userA, userB uint, limit int) ([]uint, error)
	GetSuggestions(ctx context.Context, userID uint, limit int) ([]services.Suggestion, error)
	ListMyConnections(ctx context.Context, userID uint, page, pageSize int) ([]services.ConnectionEntry, int64, error)
	ListPendingReceived(ctx context.Context, userID uint, page, pageSize int) ([]services.ConnectionEntry, int64, error)
	ListSentRequests(ctx context.Context, userID uint, page, pageSize int) ([]services.ConnectionEntry, int64, error)
	GetConnectionStats(ctx context.Context, userID uint) (services.ConnectionStats, error)
}

type ConnectionController struct {
	API ConnectionAPI
}

func NewConnectionController(api ConnectionAPI) *ConnectionController {
	return &ConnectionController{API: api}
}

type sendRequestInput struct {
	UserID  uint   `json:"userId" binding:"required"`
	Message string `json:"message"`
}

func (cc *ConnectionController) SendConnectionRequest(c *gin.Context) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	var input sendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	connectionID, err := cc.API.SendConnectionRequest(c.Request.Context(), currentUser.UserID, input.UserID, input.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"connectionId": connectionID,
		"message":      "Connection request sent",
	})
}

func (cc *ConnectionController) AcceptConnectionRequest(c *gin.Context) {
	cc.mutateByID(c, cc.API.AcceptConnectionRequest, "Connection request accepted")
}

func (cc *ConnectionController) RejectConnectionRequest(c *gin.Context) {
	cc.mutateByID(c, cc.API.RejectConnectionRequest, "Connection request rejected")
}

func (cc *ConnectionController) WithdrawConnectionRequest(c *gin.Context) {
	cc.mutateByID(c, cc.API.WithdrawConnectionRequest, "Connection request withdrawn")
}

func (cc *ConnectionController) RemoveConnection(c *gin.Context) {
	cc.mutateByID(c, cc.API.RemoveConnection, "Connection removed")
}

func (cc *ConnectionController) mutateByID(c *gin.Context, op func(context.Context, uint, uint) error, message string) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	connectionID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid connection id"})
		return
	}

	if err := op(c.Request.Context(), connectionID, currentUser.UserID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
	})
}

func (cc *ConnectionController) BlockUser(c *gin.Context) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	targetID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	if err := cc.API.BlockUser(c.Request.Context(), currentUser.UserID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User blocked successfully",
		"blocked": true,
	})
}

func (cc *ConnectionController) GetConnectionStatus(c *gin.Context) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	otherID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	status, err := cc.API.GetConnectionStatus(c.Request.Context(), currentUser.UserID, otherID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    status,
	})
}

func (cc *ConnectionController) GetMutualConnections(c *gin.Context) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	otherID, err := parseID(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	mutual, err := cc.API.GetMutualConnections(c.Request.Context(), currentUser.UserID, otherID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"mutual":  mutual,
	})
}

func (cc *ConnectionController) GetSuggestions(c *gin.Context) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	suggestions, err := cc.API.GetSuggestions(c.Request.Context(), currentUser.UserID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"suggestions": suggestions,
	})
}

func (cc *ConnectionController) GetMyConnections(c *gin.Context) {
	cc.list(c, cc.API.ListMyConnections, "connections")
}

func (cc *ConnectionController) GetPendingRequests(c *gin.Context) {
	cc.list(c, cc.API.ListPendingReceived, "requests")
}

func (cc *ConnectionController) GetSentRequests(c *gin.Context) {
	cc.list(c, cc.API.ListSentRequests, "requests")
}

func (cc *ConnectionController) list(c *gin.Context, op func(context.Context, uint, int, int) ([]services.ConnectionEntry, int64, error), key string) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	page, pageSize := utils.ParsePagination(c)

	entries, total, err := op(c.Request.Context(), currentUser.UserID, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		key:       entries,
		"pagination": gin.H{
			"currentPage": page,
			"pageSize":    pageSize,
			"totalItems":  total,
			"totalPages":  utils.TotalPages(total, pageSize),
		},
	})
}

func (cc *ConnectionController) GetStats(c *gin.Context) {
	currentUser := utils.GetUser(c)
	if currentUser == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}

	stats, err := cc.API.GetConnectionStats(c.Request.Context(), currentUser.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}

// respondError maps error kinds to HTTP statuses; everything untyped is 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindInvalidActor, apperrors.KindForbidden:
		status = http.StatusForbidden
	case apperrors.KindInvalidState, apperrors.KindConflict:
		status = http.StatusConflict
	}

	body := gin.H{"error": err.Error()}
	if kind := apperrors.KindOf(err); kind != "" {
		body["code"] = string(kind)
	} else {
		body["error"] = "Internal server error"
	}
	c.JSON(status, body)
}
