package controller

import (
	"context"
	"errors"
	"net/http"

	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/internal/service"
	"wellbeing_dashboard/internal/util"
	"wellbeing_dashboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NavigationController struct {
	Sessions *service.SessionService
	Exports  *service.ExportService
}

func NewNavigationController(sessions *service.SessionService, exports *service.ExportService) *NavigationController {
	return &NavigationController{Sessions: sessions, Exports: exports}
}

type createSessionRequest struct {
	SchoolID string `json:"schoolId" binding:"omitempty,max=64"`
}

type filterRequest struct {
	Key   string `json:"key" binding:"required,filterkey"`
	Value string `json:"value" binding:"max=128"`
}

// requestContext carries the caller's token to the query service.
func requestContext(ctx *gin.Context) context.Context {
	return service.WithBearerToken(ctx.Request.Context(), util.GetTokenFromContext(ctx))
}

func principal(ctx *gin.Context) (model.Principal, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		return model.Principal{}, false
	}
	return user.Principal(), true
}

// navigator resolves the session in the path, writing the error response
// itself when that fails.
func (c *NavigationController) navigator(ctx *gin.Context) (*service.Navigator, model.Principal, bool) {
	p, ok := principal(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return nil, p, false
	}
	nav, err := c.Sessions.Get(requestContext(ctx), p, ctx.Param("id"))
	if err != nil {
		util.Error(ctx, http.StatusNotFound, util.ErrSessionNotFound.Error())
		return nil, p, false
	}
	return nav, p, true
}

// respond maps a transition result to HTTP. Failed fetches keep the
// committed state, so the view travels along with the error.
func (c *NavigationController) respond(ctx *gin.Context, view model.NavigationView, err error) {
	vocab := model.ParseVocabulary(ctx.Query("vocabulary"))
	resp := presentView(ctx.Param("id"), view, vocab)

	var fe *service.FetchError
	switch {
	case err == nil, errors.Is(err, util.ErrSuperseded):
		util.Success(ctx, resp)
	case errors.Is(err, util.ErrInvalidTransition):
		util.ErrorWithData(ctx, http.StatusConflict, err.Error(), resp)
	case errors.Is(err, util.ErrInvalidSelection), errors.Is(err, util.ErrInvalidFilter):
		util.ErrorWithData(ctx, http.StatusBadRequest, err.Error(), resp)
	case errors.As(err, &fe) && fe.Kind == service.FetchForbidden:
		util.ErrorWithData(ctx, http.StatusForbidden, fe.Message, resp)
	case errors.As(err, &fe):
		util.ErrorWithData(ctx, http.StatusServiceUnavailable, fe.Message, resp)
	case errors.Is(err, context.Canceled):
		// client went away
		ctx.Status(499)
	default:
		logger.Log.Error("Navigation failed", zap.String("session", ctx.Param("id")), zap.Error(err))
		util.ErrorWithData(ctx, http.StatusInternalServerError, "Internal server error", resp)
	}
}

func (c *NavigationController) CreateSession(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}

	var req createSessionRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}
	if req.SchoolID == "" {
		req.SchoolID = ctx.Query("schoolId")
	}

	id, view, err := c.Sessions.Create(requestContext(ctx), p, req.SchoolID)
	if errors.Is(err, util.ErrNoSchoolAssigned) {
		util.Forbidden(ctx, err.Error())
		return
	}
	if id == "" {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.Params = append(ctx.Params, gin.Param{Key: "id", Value: id})
	if err == nil {
		ctx.JSON(http.StatusCreated, util.Response{
			Code:    http.StatusCreated,
			Message: "created",
			Data:    presentView(id, view, model.ParseVocabulary(ctx.Query("vocabulary"))),
		})
		return
	}
	c.respond(ctx, view, err)
}

func (c *NavigationController) GetSession(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	c.respond(ctx, nav.View(), nil)
}

func (c *NavigationController) CloseSession(ctx *gin.Context) {
	p, ok := principal(ctx)
	if !ok {
		util.Unauthorized(ctx)
		return
	}
	if err := c.Sessions.Close(ctx.Request.Context(), p, ctx.Param("id")); err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, nil)
}

func (c *NavigationController) DrillToSchool(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	view, err := nav.DrillToSchool(requestContext(ctx), ctx.Param("schoolId"))
	c.respond(ctx, view, err)
}

func (c *NavigationController) DrillToClass(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	view, err := nav.DrillToClass(requestContext(ctx), ctx.Param("className"))
	c.respond(ctx, view, err)
}

// DrillToStudent opens a roster entry at Class scope, or a search hit at
// School scope when className is given.
func (c *NavigationController) DrillToStudent(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	studentID := ctx.Param("studentId")

	var (
		view model.NavigationView
		err  error
	)
	if className := ctx.Query("className"); className != "" && nav.State().Scope == model.ScopeSchool {
		view, err = nav.JumpToStudent(requestContext(ctx), studentID, className)
	} else {
		view, err = nav.DrillToStudent(requestContext(ctx), studentID)
	}
	c.respond(ctx, view, err)
}

func (c *NavigationController) NavigateUp(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	view, err := nav.NavigateUp(requestContext(ctx))
	c.respond(ctx, view, err)
}

func (c *NavigationController) Reset(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	view, err := nav.ResetToNationwide(requestContext(ctx))
	c.respond(ctx, view, err)
}

func (c *NavigationController) Refresh(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	view, err := nav.Refresh(requestContext(ctx))
	c.respond(ctx, view, err)
}

func (c *NavigationController) SetFilter(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}

	var req filterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	key, err := model.ParseFilterKey(req.Key)
	if err != nil {
		util.BadRequest(ctx, util.ErrInvalidFilterKey.Error())
		return
	}

	view, err := nav.SetFilter(requestContext(ctx), key, req.Value)
	c.respond(ctx, view, err)
}

func (c *NavigationController) Sections(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	sections, err := nav.AvailableSections(requestContext(ctx))
	if err != nil {
		writeFetchError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"sections": sections})
}

func (c *NavigationController) SearchStudents(ctx *gin.Context) {
	nav, _, ok := c.navigator(ctx)
	if !ok {
		return
	}
	hits, err := nav.SearchStudents(requestContext(ctx), ctx.Query("q"))
	if err != nil {
		writeFetchError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"students": hits})
}

func (c *NavigationController) Export(ctx *gin.Context) {
	nav, p, ok := c.navigator(ctx)
	if !ok {
		return
	}
	record, err := c.Exports.Export(ctx.Request.Context(), p, ctx.Param("id"), nav.View(), model.ParseVocabulary(ctx.Query("vocabulary")))
	switch {
	case err == nil:
		util.Created(ctx, record)
	case errors.Is(err, util.ErrNoScopeData):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrStorageFailed):
		util.ServiceUnavailable(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

func (c *NavigationController) ListExports(ctx *gin.Context) {
	_, p, ok := c.navigator(ctx)
	if !ok {
		return
	}
	records, err := c.Exports.List(ctx.Request.Context(), p, ctx.Param("id"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"exports": records})
}

// writeFetchError answers side queries that do not move the session.
func writeFetchError(ctx *gin.Context, err error) {
	var fe *service.FetchError
	switch {
	case errors.Is(err, util.ErrInvalidTransition):
		util.Conflict(ctx, err.Error())
	case errors.As(err, &fe) && fe.Kind == service.FetchForbidden:
		util.Forbidden(ctx, fe.Message)
	case errors.As(err, &fe):
		util.ServiceUnavailable(ctx, fe.Message)
	default:
		util.LogInternalError(ctx, err)
	}
}
