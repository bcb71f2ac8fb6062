package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/eduschedule/internal/app/models"
	"github.com/yigit/eduschedule/internal/app/models/dto"
	"github.com/yigit/eduschedule/internal/middleware"
)

// parseIDParam reads a positive int64 path parameter, answering 400 when it is not one
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid "+name).
			WithField(name).
			WithDetails(name + " must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// parseOptionalIDQuery reads an optional positive int64 query parameter
func parseOptionalIDQuery(ctx *gin.Context, name string) (*int64, bool) {
	raw, present := ctx.GetQuery(name)
	if !present || raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid "+name).
			WithField(name).
			WithDetails(name + " must be a positive number")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}
	return &id, true
}

// requireActor returns the authenticated caller or answers 401
func requireActor(ctx *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.CurrentActor(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return models.Actor{}, false
	}
	return actor, true
}
