package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/shared/id"
)

// ServeDocument serves a prepared sandbox document by handle.
//
// Handles are unguessable, revoked on unmount, and the response is
// never cacheable. The frame element is the only intended consumer.
func (h *Handlers) ServeDocument(c *gin.Context) {
	handle := c.Param("handle")
	if !id.HasPrefix(handle, id.DocPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed document handle"})
		return
	}

	doc, ok := h.host.Document(id.DocHandle(handle))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	c.Header("Content-Security-Policy", sandbox.DocCSP)
	c.Header("Referrer-Policy", sandbox.DocReferrerPolicy)
	c.Header("Cache-Control", "no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}
