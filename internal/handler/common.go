package handler // handler defines http handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dhaqane/shop-backend/internal/logging"
)

// dbTimeout bounds every store call made while serving a request.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// fail writes the error envelope.
func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

// internalError logs err with the request's logger and answers 500 without
// exposing it.
func internalError(c echo.Context, op string, err error) error {
	logging.FromContext(c.Request().Context()).Error(op, zap.Error(err))
	return fail(c, http.StatusInternalServerError, "internal server error")
}

// storeError maps a repository error: notFound answers 404 with msg,
// anything else is internal.
func storeError(c echo.Context, op string, err, notFound error, msg string) error {
	if errors.Is(err, notFound) {
		return fail(c, http.StatusNotFound, msg)
	}
	return internalError(c, op, err)
}

func created(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": msg, "data": data})
}

func success(c echo.Context, msg string, data any) error {
	body := echo.Map{"success": true, "message": msg}
	if data != nil {
		body["data"] = data
	}
	return c.JSON(http.StatusOK, body)
}

func list(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// pathID parses the :id path parameter.  The bool is false when it is not a
// valid ObjectID; no document can carry such an id, so callers answer 404.
func pathID(c echo.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	return id, err == nil
}

type patch interface{ Set() bson.M }

// decodePatch binds a partial update.  It returns a client error message,
// or "" when the patch is usable; a patch that sets nothing is rejected.
func decodePatch[P patch](c echo.Context, p *P) string {
	if err := c.Bind(p); err != nil {
		return "invalid body"
	}
	if len((*p).Set()) == 0 {
		return "no fields to update"
	}
	return ""
}
