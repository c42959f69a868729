package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/bpispark/sparkdesk/internal/common"
	"github.com/bpispark/sparkdesk/internal/observability"
	"github.com/bpispark/sparkdesk/internal/ticket"
)

// RegisterTickets wires the ticket lifecycle endpoints. Tickets are filed
// through the chat flow; these routes serve the support-team side: listing,
// assignment, resolution, escalation, reopening, and the audit trail.
func RegisterTickets(h *server.Hertz, repo ticket.Repo) {
	h.GET(PathTickets, func(c context.Context, ctx *app.RequestContext) {
		ts, err := repo.List(c)
		if err != nil {
			common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
			return
		}
		ctx.JSON(http.StatusOK, ts)
	})

	h.GET(PathTicketID, func(c context.Context, ctx *app.RequestContext) {
		t := mustTicket(c, ctx, repo)
		if t == nil {
			return
		}
		ctx.JSON(http.StatusOK, t)
	})

	h.PUT(PathTicketAssign, func(c context.Context, ctx *app.RequestContext) {
		t := mustTicket(c, ctx, repo)
		if t == nil {
			return
		}
		t.Assign(time.Now().Unix(), bindNote(ctx))
		if err := repo.Update(c, t); err != nil {
			common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
			return
		}
		observability.TicketAssigned.Add(1)
		ctx.JSON(http.StatusOK, t)
	})

	h.PUT(PathTicketResolve, func(c context.Context, ctx *app.RequestContext) {
		t := mustTicket(c, ctx, repo)
		if t == nil {
			return
		}
		t.Resolve(time.Now().Unix(), bindNote(ctx))
		if err := repo.Update(c, t); err != nil {
			common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
			return
		}
		observability.TicketResolved.Add(1)
		ctx.JSON(http.StatusOK, t)
	})

	h.PUT(PathTicketEscalate, func(c context.Context, ctx *app.RequestContext) {
		t := mustTicket(c, ctx, repo)
		if t == nil {
			return
		}
		if err := t.Escalate(time.Now().Unix(), bindNote(ctx)); err != nil {
			writeTicketError(c, ctx, err, "cannot escalate resolved ticket")
			return
		}
		if err := repo.Update(c, t); err != nil {
			common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
			return
		}
		observability.TicketEscalated.Add(1)
		ctx.JSON(http.StatusOK, t)
	})

	h.PUT(PathTicketReopen, func(c context.Context, ctx *app.RequestContext) {
		t := mustTicket(c, ctx, repo)
		if t == nil {
			return
		}
		if err := t.Reopen(time.Now().Unix(), bindNote(ctx)); err != nil {
			writeTicketError(c, ctx, err, "can only reopen resolved ticket")
			return
		}
		if err := repo.Update(c, t); err != nil {
			common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
			return
		}
		observability.TicketReopened.Add(1)
		ctx.JSON(http.StatusOK, t)
	})

	h.GET(PathTicketCycles, func(c context.Context, ctx *app.RequestContext) {
		t := mustTicket(c, ctx, repo)
		if t == nil {
			return
		}
		ctx.JSON(http.StatusOK, map[string]any{"current": t.CurrentCycle, "cycles": t.Cycles})
	})

	h.GET(PathTicketEvents, func(c context.Context, ctx *app.RequestContext) {
		t := mustTicket(c, ctx, repo)
		if t == nil {
			return
		}
		ctx.JSON(http.StatusOK, map[string]any{"events": t.Events})
	})
}

// mustTicket fetches the path ticket or writes a 404 and returns nil.
func mustTicket(c context.Context, ctx *app.RequestContext, repo ticket.Repo) *ticket.Ticket {
	id := string(ctx.Param("id"))
	t, err := repo.Get(c, id)
	if err != nil || t == nil {
		common.WriteError(c, ctx, http.StatusNotFound, common.ErrCodeNotFound, "not found")
		return nil
	}
	return t
}

func bindNote(ctx *app.RequestContext) string {
	var req struct {
		Note string `json:"note"`
	}
	if b := ctx.Request.Body(); len(b) > 0 {
		_ = ctx.Bind(&req)
	}
	return req.Note
}

func writeTicketError(c context.Context, ctx *app.RequestContext, err error, conflictMsg string) {
	if errors.Is(err, ticket.ErrConflict) {
		common.WriteError(c, ctx, http.StatusConflict, common.ErrCodeConflict, conflictMsg)
		return
	}
	common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
}
