package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"formrelay/internal/telegram"
	logx "formrelay/pkg/logx"
)

// The job title enum is fixed; anything else is rejected.
var jobTitles = []string{"Software Engineer", "Product Designer", "Customer Support"}

type applicationRequest struct {
	Name     string `json:"name"     validate:"required,min=2"`
	Job      string `json:"job"      validate:"required,oneof='Software Engineer' 'Product Designer' 'Customer Support'"`
	Whatsapp string `json:"whatsapp" validate:"required,relayphone"`
	Details  string `json:"details"  validate:"required,min=20"`
}

func (r *applicationRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Job = strings.TrimSpace(r.Job)
	r.Whatsapp = strings.TrimSpace(r.Whatsapp)
	r.Details = strings.TrimSpace(r.Details)
}

// SubmitApplication validates a job-application form and forwards it as one
// formatted message. First validation failure wins; this path does not retry
// the send unless configured otherwise.
func (h *Handler) SubmitApplication(c echo.Context) error {
	var req applicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	req.trim()

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(applicationValidationMessage(err)))
	}

	text := fmt.Sprintf(
		"📋 New job application\nName: %s\nPosition: %s\nWhatsApp: %s\nDetails: %s",
		req.Name, req.Job, req.Whatsapp, req.Details,
	)

	if err := h.applicationText(c.Request().Context(), text); err != nil {
		h.log.Error("application send failed", logx.Err(err))
		if errors.Is(err, telegram.ErrNotConfigured) {
			return c.JSON(http.StatusInternalServerError, errorBody("messaging backend is not configured"))
		}
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}

	h.log.Info("application forwarded", logx.String("job", req.Job))
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Application submitted"})
}

// applicationValidationMessage maps the first failed field to a specific,
// human-readable message.
func applicationValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid application"
	}
	switch verrs[0].Field() {
	case "name":
		return "Name must be at least 2 characters"
	case "job":
		return "Job must be one of: " + strings.Join(jobTitles, ", ")
	case "whatsapp":
		return "WhatsApp number must be + followed by 7-15 digits"
	case "details":
		return "Details must be at least 20 characters"
	default:
		return "invalid application"
	}
}
