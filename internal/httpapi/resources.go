package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"weeklychef/internal/auth"
	"weeklychef/internal/catalog"
	"weeklychef/internal/permission"
	"weeklychef/internal/store"
	"weeklychef/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Gate decides whether a request may proceed.
type Gate interface {
	Check(ctx context.Context, id auth.Identity, family catalog.Family, verb permission.Verb, t permission.Target) (permission.Decision, error)
}

// Auditor records permission decisions. Failures never block a request.
type Auditor interface {
	RecordDecision(ctx context.Context, actor auth.Identity, ip string, d permission.Decision, targetID int64) (bool, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse input, ask the gate, call the store, return JSON.
type Handlers struct {
	Accounts Accounts
	Gate     Gate
	Store    store.Store
	Audit    Auditor
	// Policies decides which verbs get routes. Nil means the default table.
	Policies permission.Policies
}

// maxPayloadBytes bounds resource request bodies.
const maxPayloadBytes = 1 << 20

// Resource serves every verb of one family. POST is mounted on the
// collection, the other methods on /:id.
func (h Handlers) Resource(family catalog.Family) gin.HandlerFunc {
	table := catalog.MustLookup(family)

	return func(c *gin.Context) {
		verb, ok := permission.VerbFromMethod(c.Request.Method)
		if !ok {
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
			return
		}

		var target permission.Target
		if raw := c.Param("id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
				return
			}
			target = permission.ByID(id)
		}

		var payload map[string]any
		if verb == permission.VerbCreate || verb == permission.VerbUpdate {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes)
			if err := c.ShouldBindJSON(&payload); err != nil || payload == nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
				return
			}
			target.Payload = payload
		}

		if !h.authorize(c, family, verb, target) {
			return
		}

		ctx := c.Request.Context()
		switch verb {
		case permission.VerbCreate:
			values := table.ColumnValues(payload)
			if len(values) == 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no writable fields given"})
				return
			}
			row, err := h.Store.Insert(ctx, family, values)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusCreated, row.JSON())

		case permission.VerbRead:
			row, err := h.Store.GetByID(ctx, family, target.ID)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, row.JSON())

		case permission.VerbUpdate:
			values := table.ColumnValues(payload)
			if len(values) == 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "no writable fields given"})
				return
			}
			row, err := h.Store.Update(ctx, family, target.ID, values)
			if err != nil {
				abortWithError(c, err)
				return
			}
			c.JSON(http.StatusOK, row.JSON())

		case permission.VerbDelete:
			if err := h.Store.Delete(ctx, family, target.ID); err != nil {
				abortWithError(c, err)
				return
			}
			c.Status(http.StatusNoContent)
		}
	}
}

// authorize runs the permission check and writes the denial, if any.
func (h Handlers) authorize(c *gin.Context, family catalog.Family, verb permission.Verb, t permission.Target) bool {
	id := auth.IdentityFromGin(c)

	d, err := h.Gate.Check(c.Request.Context(), id, family, verb, t)
	if err != nil {
		logger.FromGin(c).Error("permission check failed", "family", family, "verb", verb, "err", err)
		abortWithError(c, err)
		return false
	}

	if h.Audit != nil {
		if _, err := h.Audit.RecordDecision(c.Request.Context(), id, c.ClientIP(), d, t.ID); err != nil {
			logger.FromGin(c).Warn("audit record failed", "family", family, "verb", verb, "err", err)
		}
	}

	if !d.Allowed {
		logger.FromGin(c).Debug("permission denied", "family", family, "verb", verb, "reason", d.Reason)
		c.AbortWithStatusJSON(d.Status(), gin.H{"error": d.Message()})
		return false
	}
	return true
}
