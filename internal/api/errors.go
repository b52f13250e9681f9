package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"alcyxob/gym-manager/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondWithError maps service errors onto HTTP responses.
func respondWithError(c *gin.Context, err error) {
	var (
		vErr  *service.ValidationError
		fErr  *service.ForbiddenError
		nfErr *service.NotFoundError
		stErr *service.StateError
	)
	switch {
	case errors.As(err, &vErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"errors": gin.H{vErr.Field: vErr.Message}})
	case errors.As(err, &fErr):
		abortWithError(c, http.StatusForbidden, fErr.Reason)
	case errors.As(err, &nfErr):
		abortWithError(c, http.StatusNotFound, nfErr.Error())
	case errors.As(err, &stErr):
		abortWithError(c, http.StatusConflict, stErr.Message)
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrTooManyAttempts):
		abortWithError(c, http.StatusTooManyRequests, err.Error())
	default:
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// parseObjectIDParam reads a hex ObjectID from the named path parameter,
// aborting with 400 when it is malformed.
func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format in URL path.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseObjectIDQuery reads a required hex ObjectID query parameter.
func parseObjectIDQuery(c *gin.Context, name string) (primitive.ObjectID, bool) {
	raw := c.Query(name)
	if raw == "" {
		abortWithError(c, http.StatusBadRequest, "Query parameter '"+name+"' is required.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseOptionalObjectID converts an optional hex ID from a request body.
func parseOptionalObjectID(c *gin.Context, field string, raw *string) (*primitive.ObjectID, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(*raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+field+" format.")
		return nil, false
	}
	return &id, true
}

// parseIntQuery reads an integer query parameter, using def when it is absent.
func parseIntQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Query parameter '"+name+"' must be an integer.")
		return 0, false
	}
	return v, true
}

// parseBoolQuery reads an optional boolean query parameter.
func parseBoolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Query parameter '"+name+"' must be true or false.")
		return nil, false
	}
	return &v, true
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(c *gin.Context, field string, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, true
		}
	}
	abortWithError(c, http.StatusBadRequest, "Invalid "+field+" format, expected YYYY-MM-DD.")
	return nil, false
}
