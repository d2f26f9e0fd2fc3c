package template

import (
	stdErrors "errors"
	"io"
	"net/http"

	"template-mailer/internal/errors"
	"template-mailer/internal/mail"
	"template-mailer/internal/user"
	"template-mailer/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type ColorRequest struct {
	Color *string `json:"color"`
}

type DeleteRequest struct {
	ConfirmName *string `json:"confirmName"`
}

type SendTemplateRequest struct {
	Values map[string]string `json:"values"`
	To     string            `json:"to"`
}

type SendEmailRequest struct {
	To      string `json:"to" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

func identity(c *gin.Context) (user.Identity, bool) {
	ident, ok := user.IdentityFromContext(c)
	if !ok {
		c.Error(errors.Unauthorized("sign in required", nil))
	}
	return ident, ok
}

func templateID(c *gin.Context) (TemplateID, bool) {
	id, err := utils.GetIDParam(c)
	if err != nil {
		c.Error(err)
		return 0, false
	}
	return TemplateID(id), true
}

// bindOptionalJSON binds a JSON body when one is present. An empty body,
// chunked or not, leaves v untouched.
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !stdErrors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) List(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), ident)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *Handler) Show(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	t, err := h.service.GetTemplate(c.Request.Context(), ident, id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"template": t})
}

func (h *Handler) Create(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var form CreateFields
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	t, err := h.service.CreateTemplate(c.Request.Context(), ident, form)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"template": t})
}

func (h *Handler) UpdateColor(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	var form ColorRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.SetColor(c.Request.Context(), ident, id, form.Color); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Delete(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	// body is optional
	var form DeleteRequest
	if err := bindOptionalJSON(c, &form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), ident, id, form.ConfirmName); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Hide(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	if err := h.service.HideTemplate(c.Request.Context(), ident, id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Restore(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	if err := h.service.RestoreTemplate(c.Request.Context(), ident, id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) Send(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	var form SendTemplateRequest
	if err := bindOptionalJSON(c, &form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	msgID, err := h.service.SendTemplate(c.Request.Context(), ident, id, form.Values, form.To)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": msgID})
}

// SendEmail sends an already rendered message.
func (h *Handler) SendEmail(c *gin.Context) {
	ident, ok := identity(c)
	if !ok {
		return
	}

	var form SendEmailRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	msgID, err := h.service.SendEmail(c.Request.Context(), ident, mail.Message{
		To:       form.To,
		Subject:  form.Subject,
		HTMLBody: form.Body,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": msgID})
}

// RegisterRoutes mounts the template API on an authenticated group.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, sendLimit gin.HandlerFunc) {
	templates := api.Group("/templates")
	templates.GET("", h.List)
	templates.POST("", h.Create)
	templates.GET("/:id", h.Show)
	templates.PATCH("/:id", h.UpdateColor)
	templates.DELETE("/:id", h.Delete)
	templates.POST("/:id/hide", h.Hide)
	templates.POST("/:id/restore", h.Restore)
	templates.POST("/:id/send", sendLimit, h.Send)

	api.POST("/send-email", sendLimit, h.SendEmail)
}
