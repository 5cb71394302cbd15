package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	mw "github.com/kasuganosora/itemvault/middleware"
	"github.com/kasuganosora/itemvault/registry"
	"github.com/kasuganosora/itemvault/store"
)

// respondError maps a store error onto a status code and an
// {"error": msg} body. Payload errors also carry the offending fields.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var perr *registry.PayloadError
	switch {
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error(), "fields": perr})
	case errors.Is(err, store.ErrUnknownTypeTag), errors.Is(err, store.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":    "internal error",
			"trace_id": mw.GetTraceID(c),
		})
	}
}

func badRequest(c *gin.Context, msg string) {
	_ = c.Error(errors.New(msg))
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// paramTag resolves the :type path parameter, accepting short codes.
func paramTag(c *gin.Context) (registry.Tag, bool) {
	tag, err := registry.Parse(c.Param("type"))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return tag, true
}

// bindObject decodes the body as a JSON object.
func bindObject(c *gin.Context) (map[string]any, bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		badRequest(c, "request body must be a JSON object")
		return nil, false
	}
	mw.SetAuditRequest(c, body)
	return body, true
}
