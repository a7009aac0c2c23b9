package httpapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http/httptest"
	"testing"

	logx "formrelay/pkg/logx"
)

type fakeText struct {
	texts []string
	err   error
}

func (f *fakeText) SendText(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

type recordedBatch struct {
	label string
	count int
}

type fakeBatch struct {
	batches []recordedBatch
	err     error
}

func (f *fakeBatch) SendPhotos(_ context.Context, label string, photos [][]byte) error {
	f.batches = append(f.batches, recordedBatch{label: label, count: len(photos)})
	return f.err
}

type fakeDirect struct {
	posts []string
	err   error
}

func (f *fakeDirect) PostText(_ context.Context, text string) error {
	f.posts = append(f.posts, text)
	return f.err
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fixture struct {
	relay    *fakeText
	batch    *fakeBatch
	direct   *fakeDirect
	operator *fakeText
	pinger   *fakePinger
	srv      *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		relay:    &fakeText{},
		batch:    &fakeBatch{},
		direct:   &fakeDirect{},
		operator: &fakeText{},
		pinger:   &fakePinger{},
	}
	h := NewHandler(Deps{
		Log:               logx.Nop(),
		Relay:             f.relay,
		Batch:             f.batch,
		Direct:            f.direct,
		Operator:          f.operator,
		Pinger:            f.pinger,
		VerifyRetryOnSend: true,
	})
	f.srv = NewServer(":0", h, logx.Nop())
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.srv.e.ServeHTTP(rec, req)

	var decoded map[string]any
	if len(rec.Body.Bytes()) > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func dataURI(payload string) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(payload))
}

func (f *fixture) totalSends() int {
	return len(f.relay.texts) + len(f.batch.batches) + len(f.direct.posts)
}
