package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CheckSubdomainRequest struct {
	Subdomain string `json:"subdomain"`
}

// CheckSubdomain answers the as-you-type availability question on the
// signup form. The answer is advisory; the insert decides races.
func (s *Server) CheckSubdomain(c *gin.Context) {
	var req CheckSubdomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	availability, err := s.tenantSvc.CheckAvailability(c.Request.Context(), req.Subdomain)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, availability)
}
