package bootstrap

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"github.com/dalemusser/branchhub/internal/domain/models"
	"github.com/dalemusser/branchhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

const testTokenSecret = "bootstrap-test-secret-0123456789abcdef"

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "branchhub_test",
		SessionKey:    "test-session-key-for-testing-only-0123",
		SessionName:   "test-session",
		SessionMaxAge: time.Hour,
		TokenSecret:   testTokenSecret,
		TokenTTL:      time.Hour,
	}
}

func TestStartup_EnsuresSuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	t.Cleanup(timeouts.Reset)

	deps := DBDeps{BranchHubMongoDatabase: db}
	cfg := testAppConfig()
	cfg.SuperAdminLogin = "root"
	cfg.SuperAdminPassword = "pw"
	cfg.TimeoutShort = 3 * time.Second

	if err := Startup(ctx, &config.CoreConfig{Env: "dev"}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}

	var user models.User
	if err := db.Collection("users").FindOne(ctx, bson.M{"login_id_ci": "root"}).Decode(&user); err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}
	if user.Role != "super_admin" || user.Status != "active" || user.BranchID != nil {
		t.Errorf("unexpected super admin %+v", user)
	}
	if timeouts.Short() != 3*time.Second {
		t.Errorf("timeouts.Short = %s, want 3s", timeouts.Short())
	}

	// Running again is a no-op promotion.
	if err := ensureSuperAdmin(ctx, deps, "root", "", testLogger()); err != nil {
		t.Fatalf("second ensureSuperAdmin failed: %v", err)
	}
	n, err := db.Collection("users").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("users = %d, want 1", n)
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{BranchHubMongoDatabase: db}
	for i := 0; i < 2; i++ {
		if err := EnsureSchema(ctx, &config.CoreConfig{}, testAppConfig(), deps, testLogger()); err != nil {
			t.Fatalf("EnsureSchema run %d: %v", i+1, err)
		}
	}

	fx := testutil.NewFixtures(t, db)
	b := fx.CreateBranch(ctx, "North", "N1")
	fx.CreateMember(ctx, "A", "same", b.ID)
	_, err := db.Collection("users").InsertOne(ctx, bson.M{"login_id_ci": "same"})
	if err == nil {
		t.Error("expected duplicate login_id_ci to be rejected by the unique index")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", "dev", func(*AppConfig) {}, false},
		{"bad uri", "dev", func(c *AppConfig) { c.MongoURI = "http://nope" }, true},
		{"no database", "dev", func(c *AppConfig) { c.MongoDatabase = "" }, true},
		{"prod without session key", "prod", func(c *AppConfig) { c.SessionKey = "" }, true},
		{"dev without session key", "dev", func(c *AppConfig) { c.SessionKey = "" }, false},
		{"short token secret", "dev", func(c *AppConfig) { c.TokenSecret = "short" }, true},
		{"tokens disabled", "dev", func(c *AppConfig) { c.TokenSecret = ""; c.TokenTTL = 0 }, false},
		{"password without login", "dev", func(c *AppConfig) { c.SuperAdminPassword = "pw" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildHandler_EndToEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	north := fx.CreateBranch(ctx, "North", "N1")
	fx.CreateUser(ctx, "Lee", "lee", rbac.MCLeader, &north.ID, "pw")
	fx.CreateUser(ctx, "Root", "root", rbac.SuperAdmin, nil, "pw")

	deps := DBDeps{BranchHubMongoClient: db.Client(), BranchHubMongoDatabase: db}
	h, err := BuildHandler(&config.CoreConfig{Env: "dev"}, testAppConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	do := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("POST", "/login", `{"login_id":"lee","password":"pw"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil || login.Token == "" {
		t.Fatalf("login token missing: %v", err)
	}

	tests := []struct {
		method, path string
		token        string
		want         int
		code         string
	}{
		{"GET", "/me", login.Token, http.StatusOK, ""},
		{"GET", "/me", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"GET", "/me", "garbage", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"GET", "/users", login.Token, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"GET", "/branches/" + north.ID.Hex() + "/reports", login.Token, http.StatusOK, ""},
		{"POST", "/reports/branches/run", login.Token, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"GET", "/forbidden", "", http.StatusForbidden, "INSUFFICIENT_PERMISSIONS"},
		{"GET", "/unauthorized", "", http.StatusUnauthorized, "UNAUTHENTICATED"},
		{"GET", "/no-such-page", "", http.StatusNotFound, "NOT_FOUND"},
		{"GET", "/health", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		rec := do(tt.method, tt.path, "", tt.token)
		if rec.Code != tt.want {
			t.Errorf("%s %s: status %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			continue
		}
		if tt.code == "" {
			continue
		}
		var env struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil || env.Error.Code != tt.code {
			t.Errorf("%s %s: code %q, want %q", tt.method, tt.path, env.Error.Code, tt.code)
		}
	}

	// A super admin's session cookie must not start a run from another origin.
	rec = do("POST", "/login", `{"login_id":"root","password":"pw"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("root login: status %d, body %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("root login set no session cookie")
	}
	runAs := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "http://branchhub.test/reports/branches/run", nil)
		req.Header.Set("Origin", origin)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	if rec := runAs("https://evil.example"); rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "CROSS_ORIGIN_REJECTED") {
		t.Errorf("cross-origin run: status %d, body %s", rec.Code, rec.Body.String())
	}
	if n, _ := db.Collection("branch_reports").CountDocuments(ctx, bson.M{}); n != 0 {
		t.Errorf("cross-origin run stored %d report rows", n)
	}
	if rec := runAs("http://branchhub.test"); rec.Code != http.StatusOK {
		t.Errorf("same-origin run: status %d, body %s", rec.Code, rec.Body.String())
	}
}
