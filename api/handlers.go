package api

import (
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"taskboard-api/domain"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, store Storage, sessions SessionStore, logger *log.Logger) {
	e.Use(decompressRequests())
	r := NewResolver(store, sessions)
	e.POST("/api/register", postRegister(r))
	e.POST("/api/login", postLogin(r))
	e.GET("/api/me", getMe(r, sessions))
	e.GET("/api/tasks", getTasks(r, sessions, logger))
	e.POST("/api/tasks", postTask(r, sessions))
	e.GET("/api/tasks/:id", getTask(r, sessions))
	e.PATCH("/api/tasks/:id", patchTask(r, sessions))
	e.DELETE("/api/tasks/:id", deleteTask(r, sessions))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		//TODO: probe table and redis connectivity
		return c.NoContent(http.StatusOK)
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	dec := sonic.ConfigStd.NewDecoder(lr)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func internalError(c echo.Context, err error) error {
	c.Logger().Error(err)
	return c.String(http.StatusInternalServerError, err.Error())
}

func postRegister(r *Resolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in RegisterInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		res, err := r.Register(c.Request().Context(), in)
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func postLogin(r *Resolver) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in LoginInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		res, err := r.Login(c.Request().Context(), in)
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func getMe(r *Resolver, sessions SessionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, err := identityFromRequest(c, sessions)
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(http.StatusOK, r.Me(ident))
	}
}

func getTasks(r *Resolver, sessions SessionStore, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newTaskRequestMetrics(c.Request().Context(), logger)
		req := c.Request().WithContext(ctx)
		c.SetRequest(req)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		ident, identErr := identityFromRequest(c, sessions)
		metrics.ObserveAuth(time.Since(authStart))
		if identErr != nil {
			metrics.SetErrorStage("session")
			err = internalError(c, identErr)
			return err
		}

		fetchStart := time.Now()
		res, fetchErr := r.Tasks(ctx, ident)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			err = internalError(c, fetchErr)
			return err
		}
		metrics.SetTasksReturned(len(res.Tasks))
		if res.Error != nil {
			metrics.SetErrorStage("resolution")
		}

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, res)
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

func getTask(r *Resolver, sessions SessionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, err := identityFromRequest(c, sessions)
		if err != nil {
			return internalError(c, err)
		}
		res, err := r.Task(c.Request().Context(), ident, c.Param("id"))
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func postTask(r *Resolver, sessions SessionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, err := identityFromRequest(c, sessions)
		if err != nil {
			return internalError(c, err)
		}
		var in CreateTaskInput
		if err := decodeBody(c, &in); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		res, err := r.CreateTask(c.Request().Context(), ident, in)
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func patchTask(r *Resolver, sessions SessionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, err := identityFromRequest(c, sessions)
		if err != nil {
			return internalError(c, err)
		}
		var changes domain.TaskChanges
		if err := decodeBody(c, &changes); err != nil {
			return c.String(http.StatusBadRequest, "invalid body")
		}
		res, err := r.UpdateTask(c.Request().Context(), ident, c.Param("id"), changes)
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func deleteTask(r *Resolver, sessions SessionStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, err := identityFromRequest(c, sessions)
		if err != nil {
			return internalError(c, err)
		}
		res, err := r.DeleteTask(c.Request().Context(), ident, c.Param("id"))
		if err != nil {
			return internalError(c, err)
		}
		return c.JSON(http.StatusOK, res)
	}
}
