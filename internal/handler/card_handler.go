package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaultgate/card-token-service/internal/dto"
	"github.com/vaultgate/card-token-service/internal/service"
	"github.com/vaultgate/card-token-service/pkg/observability"
)

// CardHandler handles card token lifecycle requests
type CardHandler struct {
	cardService service.CardService
	metrics     *observability.CardMetrics
}

// NewCardHandler creates a new card handler. metrics may be nil.
func NewCardHandler(cardService service.CardService, metrics *observability.CardMetrics) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		metrics:     metrics,
	}
}

// Issue handles card token issuance
// @Summary Issue a card token
// @Description Validate card details and mint a signed card token
// @Tags card
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.IssueCardRequest true "Card details"
// @Success 201 {object} dto.CardTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /card [post]
func (h *CardHandler) Issue(c *gin.Context) {
	userID, ok := contextUserID(c, ContextUserID)
	if !ok {
		return
	}

	var req dto.IssueCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Validation failed",
			Message: err.Error(),
		})
		return
	}

	cardToken, err := h.cardService.Issue(c.Request.Context(), userID, &req)
	if err != nil {
		respondCardError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TokenIssued(c.Request.Context())
	}

	c.JSON(http.StatusCreated, dto.NewCardTokenResponse(cardToken))
}

// List handles listing the caller's active card tokens
// @Summary List active card tokens
// @Description List the caller's non-revoked, non-expired card tokens
// @Tags card
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.CardTokenResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /card [get]
func (h *CardHandler) List(c *gin.Context) {
	userID, ok := contextUserID(c, ContextUserID)
	if !ok {
		return
	}

	tokens, err := h.cardService.ListActive(c.Request.Context(), userID)
	if err != nil {
		respondCardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCardTokenList(tokens))
}

// Get handles fetching a single card token record
// @Summary Get a card token
// @Description Fetch one active card token owned by the token's holder
// @Tags card
// @Security BearerAuth
// @Produce json
// @Param id path string true "Card token id"
// @Success 200 {object} dto.CardTokenResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /card/{id} [get]
func (h *CardHandler) Get(c *gin.Context) {
	userID, ok := contextUserID(c, ContextCardUserID)
	if !ok {
		return
	}

	cardToken, err := h.cardService.GetActive(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondCardError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewCardTokenResponse(cardToken))
}

// Revoke handles card token revocation
// @Summary Revoke a card token
// @Description Permanently revoke a card token. Requires full-access scope.
// @Tags card
// @Security BearerAuth
// @Produce json
// @Param id path string true "Card token id"
// @Success 200 {object} dto.CardTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /card/{id}/revoke [patch]
func (h *CardHandler) Revoke(c *gin.Context) {
	userID, ok := contextUserID(c, ContextCardUserID)
	if !ok {
		return
	}

	cardToken, err := h.cardService.Revoke(c.Request.Context(), c.Param("id"), userID, c.GetString(ContextCardToken))
	if err != nil {
		respondCardError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TokenRevoked(c.Request.Context())
	}

	c.JSON(http.StatusOK, dto.NewCardTokenResponse(cardToken))
}

// Delete handles card token deletion
// @Summary Delete a card token
// @Description Permanently delete a card token record. Requires full-access scope.
// @Tags card
// @Security BearerAuth
// @Produce json
// @Param id path string true "Card token id"
// @Success 200 {object} dto.SuccessResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /card/{id} [delete]
func (h *CardHandler) Delete(c *gin.Context) {
	userID, ok := contextUserID(c, ContextCardUserID)
	if !ok {
		return
	}

	if err := h.cardService.Delete(c.Request.Context(), c.Param("id"), userID, c.GetString(ContextCardToken)); err != nil {
		respondCardError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TokenDeleted(c.Request.Context())
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "Card token deleted successfully",
	})
}

// Refresh handles card token refresh
// @Summary Refresh a card token
// @Description Re-sign the card token with a fresh expiry. Requires refresh-only or full-access scope.
// @Tags card
// @Security BearerAuth
// @Produce json
// @Param id path string true "Card token id"
// @Success 200 {object} dto.CardTokenResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /card/{id}/refresh [post]
func (h *CardHandler) Refresh(c *gin.Context) {
	userID, ok := contextUserID(c, ContextCardUserID)
	if !ok {
		return
	}

	cardToken, err := h.cardService.Refresh(c.Request.Context(), c.Param("id"), userID, c.GetString(ContextCardToken))
	if err != nil {
		respondCardError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TokenRefreshed(c.Request.Context())
	}

	c.JSON(http.StatusOK, dto.NewCardTokenResponse(cardToken))
}

func contextUserID(c *gin.Context, key string) (string, bool) {
	userID := c.GetString(key)
	if userID == "" {
		abortUnauthorized(c, "User ID not found in context")
		return "", false
	}
	return userID, true
}

// respondCardError maps business error kinds to HTTP statuses. A token
// mismatch answers 404, the same as an absent row, so presenting a
// stale token confirms nothing about the id.
func respondCardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrTokenMismatch):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "Not found",
			Message: service.ErrNotFound.Error(),
		})
	case errors.Is(err, service.ErrAlreadyRevoked),
		errors.Is(err, service.ErrCardExpired),
		errors.Is(err, service.ErrInvalidCardNumber),
		errors.Is(err, service.ErrInvalidExpiry),
		errors.Is(err, service.ErrInvalidScope):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Bad request",
			Message: err.Error(),
		})
	case errors.Is(err, service.ErrInsufficientScope):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{
			Error:   "Forbidden",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Failed to process card token request",
		})
	}
}
