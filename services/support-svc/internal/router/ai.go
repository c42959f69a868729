package router

import (
	"context"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/bpispark/sparkdesk/internal/ai/chain"
	"github.com/bpispark/sparkdesk/internal/common"
	"github.com/bpispark/sparkdesk/internal/observability"
)

// RegisterAI wires the embeddings utility endpoint.
func RegisterAI(h *server.Hertz, ec chain.EmbeddingChain) {
	h.POST(PathEmbeddings, func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Texts []string `json:"texts"`
			Dim   int      `json:"dim"`
		}
		if err := ctx.Bind(&req); err != nil || len(req.Texts) == 0 {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "texts is required")
			return
		}
		if req.Dim == 0 {
			req.Dim = 128
		}
		if req.Dim < 4 || req.Dim > 4096 {
			common.WriteError(c, ctx, http.StatusBadRequest, common.ErrCodeBadRequest, "invalid dim")
			return
		}
		vecs, err := ec.Embed(c, req.Texts, req.Dim)
		if err != nil || len(vecs) == 0 {
			common.WriteError(c, ctx, http.StatusInternalServerError, common.ErrCodeInternal, "embedding failed")
			return
		}
		observability.AIEmbeddingCalls.Add(1)
		ctx.JSON(http.StatusOK, map[string]any{"vectors": vecs, "dim": len(vecs[0]), "provider": ec.Provider()})
	})
}
