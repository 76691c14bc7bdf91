package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/cuaderno/apps/api/echo"
	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/auth"
	"github.com/trezcool/cuaderno/core/backup"
	"github.com/trezcool/cuaderno/core/i18n"
	"github.com/trezcool/cuaderno/core/planner"
	"github.com/trezcool/cuaderno/fs"
	"github.com/trezcool/cuaderno/services/email"
	"github.com/trezcool/cuaderno/storage/database/inmem"
	"github.com/trezcool/cuaderno/tests"
)

const testPassword = "tiza"

var errUnauthorized = httpErr{Error: "not authenticated"}

type testApp struct {
	Server
	planner *planner.Service
	mailer  *emailsvc.ConsoleServiceMock
	gate    *auth.Gate
	logger  *testutil.Logger
}

// setup wires a server on an in-memory planner without remote backend.
// A non-empty password turns the auth gate on.
func setup(t *testing.T, password string) *testApp {
	logger := testutil.NewLogger(t)
	conf := &core.Config{
		AppName:          "Cuaderno",
		SecretKey:        "secret",
		TeacherEmail:     "profe@example.com",
		DefaultFromEmail: mail.Address{Address: "noreply@example.com"},
		Auth:             core.AuthConfig{Password: password},
	}

	catalog, err := i18n.New(appfs.FS, appfs.LocalesDir, "es")
	require.NoError(t, err)
	validate := validator.New()
	core.InitValidators(validate, catalog.Translators()...)
	planner.InitValidators(validate, catalog.Translators()...)
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true, logger)

	plannerSvc := planner.NewService(planner.Deps{
		Cache:    inmemdb.NewCache(),
		Logger:   logger,
		Validate: validate,
	})
	mailer := emailsvc.NewConsoleServiceMock(conf, logger)
	backupSvc := backup.NewService(backup.Deps{
		Planner:      plannerSvc,
		Mailer:       mailer,
		Logger:       logger,
		TeacherEmail: conf.TeacherEmail,
	})
	gate, err := auth.NewGate(conf)
	require.NoError(t, err)

	srv := NewServer(&Options{
		AppName:        conf.AppName,
		TestMode:       true,
		DisableReqLogs: true,
		Logger:         logger,
		Planner:        plannerSvc,
		Backups:        backupSvc,
		Gate:           gate,
		Catalog:        catalog,
	})
	return &testApp{Server: srv, planner: plannerSvc, mailer: mailer, gate: gate, logger: logger}
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	lang     string
	wantCode int
	wantData []byte
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

func getToken(t *testing.T, gate *auth.Gate) string {
	token, _, err := gate.Login(testPassword)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarchall(): %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	if len(bytes.TrimSpace(b1)) == 0 || len(b2) == 0 {
		return len(bytes.TrimSpace(b1)) == len(b2), nil
	}
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
	assert.Equal(t, tt.wantCode, rec.Code, "code")
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// runHTTPTests runs table tests that do not depend on each other's side effects.
func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			if tt.lang != "" {
				req.Header.Set("Accept-Language", tt.lang)
			}
			checkCodeAndData(t, tt, app.do(req, rec))
		})
	}
}
