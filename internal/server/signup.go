package server

import (
	"net/http"
	"strings"

	identitylocal "github.com/baselinedocs/baselinedocs/internal/identity/local"
	provdomain "github.com/baselinedocs/baselinedocs/internal/provision/domain"
	"github.com/baselinedocs/baselinedocs/internal/subdomain"
	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
	Subdomain   string `json:"subdomain"`
}

type ResendRequest struct {
	Email string `json:"email"`
}

// Signup starts the email/password flow: the signup is parked as a
// pending registration and a confirmation email goes out. Provisioning
// happens in ConfirmSignup.
func (s *Server) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	sub, err := subdomain.Validate(req.Subdomain)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		AbortWithError(c, provdomain.ErrCompanyNameRequired)
		return
	}

	reg, err := s.localSvc.Register(c.Request.Context(), identitylocal.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Subdomain:   sub,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "confirmation_sent",
		"email":  reg.Email,
	})
}

func (s *Server) ResendConfirmation(c *gin.Context) {
	var req ResendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.localSvc.Resend(c.Request.Context(), req.Email); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "confirmation_sent"})
}

// ConfirmSignup is the link clicked from the confirmation email. A
// confirmed registration immediately provisions the tenant and lands
// the user on their new workspace.
func (s *Server) ConfirmSignup(c *gin.Context) {
	confirmation, err := s.localSvc.Confirm(c.Request.Context(), c.Query("token"))
	if err != nil {
		s.redirectSignupError(c, err)
		return
	}

	result, err := s.provisionSvc.Provision(c.Request.Context(), provdomain.Request{
		Identity:    confirmation.Identity,
		CompanyName: confirmation.CompanyName,
		Subdomain:   confirmation.Subdomain,
	})
	if err != nil {
		s.redirectSignupError(c, err)
		return
	}

	c.Redirect(http.StatusFound, result.WorkspaceURL)
}

// redirectSignupError sends the browser back to the signup page with a
// stable error code. Used on the link-click paths where a JSON body
// would be useless.
func (s *Server) redirectSignupError(c *gin.Context, err error) {
	_, payload := mapError(err)
	c.Redirect(http.StatusFound, s.cfg.SiteURL+"/signup?error="+payload.Type)
}
