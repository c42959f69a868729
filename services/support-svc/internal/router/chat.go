package router

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/bpispark/sparkdesk/internal/chat"
	"github.com/bpispark/sparkdesk/internal/common"
	"github.com/bpispark/sparkdesk/internal/ticket"
)

// RegisterChat wires the conversation endpoints onto the controller.
func RegisterChat(h *server.Hertz, ctrl *chat.Controller) {
	h.POST(PathSessions, func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(http.StatusCreated, ctrl.StartSession())
	})

	h.GET(PathSuggestions, func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(http.StatusOK, map[string]any{"suggestions": chat.QuickSuggestions})
	})

	h.GET(PathSessionID, func(c context.Context, ctx *app.RequestContext) {
		snap, err := ctrl.Session(string(ctx.Param("id")))
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	h.POST(PathSessionMsgs, func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Text string `json:"text"`
		}
		if err := ctx.Bind(&req); err != nil || req.Text == "" {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "text is required")
			return
		}
		snap, err := ctrl.HandleUserMessage(c, string(ctx.Param("id")), req.Text)
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	h.POST(PathSessionReset, func(c context.Context, ctx *app.RequestContext) {
		snap, err := ctrl.Reset(string(ctx.Param("id")))
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	h.POST(PathTicketAccept, func(c context.Context, ctx *app.RequestContext) {
		snap, err := ctrl.AcceptOffer(string(ctx.Param("id")))
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	h.POST(PathTicketDecline, func(c context.Context, ctx *app.RequestContext) {
		snap, err := ctrl.DeclineOffer(string(ctx.Param("id")))
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	h.DELETE(PathSessionID, func(c context.Context, ctx *app.RequestContext) {
		if err := ctrl.EndSession(string(ctx.Param("id"))); err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusNoContent, nil)
	})

	h.PUT(PathTicketDraft, func(c context.Context, ctx *app.RequestContext) {
		var patch ticket.DraftPatch
		if err := ctx.Bind(&patch); err != nil {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "bad request")
			return
		}
		snap, err := ctrl.EditDraft(string(ctx.Param("id")), patch)
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	h.POST(PathTicketSubmit, func(c context.Context, ctx *app.RequestContext) {
		snap, err := ctrl.SubmitDraft(c, string(ctx.Param("id")))
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})

	h.POST(PathTicketDraftEnd, func(c context.Context, ctx *app.RequestContext) {
		snap, err := ctrl.CancelDraft(string(ctx.Param("id")))
		if err != nil {
			writeChatError(c, ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, snap)
	})
}

func writeChatError(c context.Context, ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, chat.ErrSessionNotFound):
		common.WriteError(c, ctx, http.StatusNotFound, common.ErrCodeNotFound, "session not found")
	case errors.Is(err, chat.ErrSessionBusy):
		common.WriteError(c, ctx, http.StatusConflict, common.ErrCodeConflict, "a request is already in flight for this session")
	case errors.Is(err, chat.ErrBadState):
		common.WriteError(c, ctx, http.StatusConflict, common.ErrCodeConflict, "action not allowed in current conversation state")
	default:
		common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
	}
}
