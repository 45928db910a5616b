package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/trezcool/libdesk/apps/api/echo"
	"github.com/trezcool/libdesk/core"
	"github.com/trezcool/libdesk/services/google"
	"github.com/trezcool/libdesk/services/objectstore"
	"github.com/trezcool/libdesk/testutil"
)

var ctxBg = context.Background()

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

// fakeGoogle accepts the tokens of its map.
type fakeGoogle map[string]string // {idToken: email}

func (g fakeGoogle) Verify(_ context.Context, idToken string) (string, error) {
	if email, ok := g[idToken]; ok {
		return email, nil
	}
	return "", google.ErrInvalidToken
}

func setup(t *testing.T, tweak ...func(*core.Config)) (*testutil.App, *Server) {
	a := testutil.NewApp()
	for _, fn := range tweak {
		fn(a.Conf)
	}
	srv := NewServer(
		ServerDeps{
			Conf:           a.Conf,
			Logger:         a.Logger,
			DisableReqLogs: true,
			Tokens:         a.Tokens,
			FounderSvc:     a.FounderSvc,
			LibrarySvc:     a.LibrarySvc,
			StudentSvc:     a.StudentSvc,
			PaymentSvc:     a.PaymentSvc,
			DashboardSvc:   a.DashboardSvc,
			OTPSvc:         a.OTPSvc,
			AppVersionSvc:  a.AppVersionSvc,
			Google:         fakeGoogle{"good-token": "lib1@example.com"},
			Store:          objectstore.NewLocalStore(t.TempDir(), "http://files.test"),
			Validate:       a.Validate,
			Translator:     a.Translator,
		},
	)
	return a, srv
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// do runs a request through the server.
func do(srv *Server, method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	srv.ServeHTTP(rec, req)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarshalBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("unmarshalBody(): %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, srv *Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
