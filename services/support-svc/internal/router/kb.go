package router

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/google/uuid"

	"github.com/bpispark/sparkdesk/internal/common"
	"github.com/bpispark/sparkdesk/internal/kb"
	"github.com/bpispark/sparkdesk/internal/observability"
)

// RegisterKB wires knowledge base management and search.
func RegisterKB(h *server.Hertz, repo kb.Repo) {
	h.POST(PathDocs, func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Title    string   `json:"title"`
			Keywords []string `json:"keywords"`
			Content  string   `json:"content"`
		}
		if err := ctx.Bind(&req); err != nil || req.Title == "" {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "title is required")
			return
		}
		d := &kb.Doc{ID: uuid.NewString(), Title: req.Title, Keywords: req.Keywords, Content: req.Content}
		if err := repo.Add(c, d); err != nil {
			common.WriteError(c, ctx, http.StatusServiceUnavailable, common.ErrCodeKBUnavailable, "kb backend unavailable")
			return
		}
		observability.KBDocCreated.Add(1)
		ctx.JSON(http.StatusCreated, map[string]string{"id": d.ID})
	})

	h.GET(PathDocs, func(c context.Context, ctx *app.RequestContext) {
		docs, err := repo.List(c)
		if err != nil {
			common.WriteError(c, ctx, http.StatusServiceUnavailable, common.ErrCodeKBUnavailable, "kb backend unavailable")
			return
		}
		ctx.JSON(http.StatusOK, docs)
	})

	h.GET(PathDocID, func(c context.Context, ctx *app.RequestContext) {
		d, ok := repo.Get(c, string(ctx.Param("id")))
		if !ok {
			common.WriteError(c, ctx, http.StatusNotFound, common.ErrCodeNotFound, "not found")
			return
		}
		ctx.JSON(http.StatusOK, d)
	})

	// update (partial upsert): a missing doc is created in place
	h.PUT(PathDocID, func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.Param("id"))
		if id == "" {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "bad request")
			return
		}
		var patch struct {
			Title    *string   `json:"title"`
			Keywords *[]string `json:"keywords"`
			Content  *string   `json:"content"`
		}
		if b := ctx.Request.Body(); len(b) > 0 {
			if err := ctx.Bind(&patch); err != nil {
				common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "bad request")
				return
			}
		}
		// patch a local copy; the stored doc is only replaced once the
		// result validates, and never mutated outside the repo
		d := &kb.Doc{ID: id}
		if cur, ok := repo.Get(c, id); ok {
			cp := *cur
			d = &cp
		}
		if patch.Title != nil {
			d.Title = *patch.Title
		}
		if patch.Keywords != nil {
			d.Keywords = *patch.Keywords
		}
		if patch.Content != nil {
			d.Content = *patch.Content
		}
		if d.Title == "" {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "title is required")
			return
		}
		if err := repo.Update(c, d); err != nil {
			common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
			return
		}
		observability.KBDocUpdated.Add(1)
		ctx.JSON(http.StatusOK, map[string]any{"id": d.ID})
	})

	h.DELETE(PathDocID, func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.Param("id"))
		if id == "" {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "bad request")
			return
		}
		if err := repo.Delete(c, id); err != nil {
			common.WriteError(c, ctx, http.StatusServiceUnavailable, common.ErrCodeKBUnavailable, "kb backend unavailable")
			return
		}
		observability.KBDocDeleted.Add(1)
		ctx.JSON(http.StatusNoContent, nil)
	})

	h.GET(PathSearch, func(c context.Context, ctx *app.RequestContext) {
		q := string(ctx.Query("q"))
		limit := 10
		if v := ctx.Query("limit"); len(v) > 0 {
			if n, err := strconv.Atoi(string(v)); err == nil && n > 0 {
				if n > 50 {
					n = 50
				}
				limit = n
			}
		}
		items, total, err := kb.Search(c, repo, q, limit)
		if err != nil {
			common.WriteError(c, ctx, http.StatusServiceUnavailable, common.ErrCodeKBUnavailable, "kb backend unavailable")
			return
		}
		observability.KBSearchRequests.Add(1)
		observability.KBSearchHits.Add(int64(len(items)))
		ctx.JSON(http.StatusOK, map[string]any{"items": items, "total": total})
	})

	h.GET(PathKBInfo, func(c context.Context, ctx *app.RequestContext) {
		if r, ok := repo.(interface {
			Info(ctx context.Context) (map[string]any, error)
		}); ok {
			info, err := r.Info(c)
			if err != nil {
				common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "internal error")
				return
			}
			ctx.JSON(http.StatusOK, info)
			return
		}
		n, _ := repo.Count(c)
		ctx.JSON(http.StatusOK, map[string]any{"backend": "memory", "docs": n})
	})
}
