package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/suportia/helpdesk/internal/errs"
)

// badRequest renders a binding failure as 400 {message, field}, pulling the
// offending field out of the validator error when one is available.
func badRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := lowerFirst(verrs[0].Field())
		c.JSON(http.StatusBadRequest, gin.H{
			"message": field + " failed on the '" + verrs[0].Tag() + "' rule",
			"field":   field,
		})
		return
	}
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"message": verr.Message, "field": verr.Field})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body", "field": ""})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func internalError(c *gin.Context, production bool, err error) {
	if production {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
