package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cex-withdraw-go/internal/api"
	"cex-withdraw-go/internal/auth"
	"cex-withdraw-go/internal/database"
	"cex-withdraw-go/internal/exchange"
	"cex-withdraw-go/internal/models"
	"cex-withdraw-go/internal/store"
)

const testPassword = "correct-horse"

type stubClient struct {
	connected bool
}

func (c *stubClient) Name() string { return "binance" }

func (c *stubClient) ListCoins(ctx context.Context) ([]models.Coin, error) { return nil, nil }

func (c *stubClient) GetBalance(ctx context.Context, coin string) ([]models.Balance, error) {
	return nil, nil
}

func (c *stubClient) ListNetworks(ctx context.Context, coin string) ([]models.Network, error) {
	return nil, nil
}

func (c *stubClient) Withdraw(ctx context.Context, params models.WithdrawParams) models.WithdrawResult {
	return models.WithdrawResult{Error: "not used"}
}

func (c *stubClient) CheckNetworkStatus(ctx context.Context, coin, network string) (models.NetworkStatus, error) {
	return models.NetworkStatus{}, nil
}

func (c *stubClient) WithdrawHistory(ctx context.Context, coin string, limit int) ([]models.ExchangeWithdrawal, error) {
	return nil, nil
}

func (c *stubClient) TestConnection(ctx context.Context) bool { return c.connected }

type testServer struct {
	router *Router
	db     *database.Service
	auth   *auth.Service
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWith(t, models.ServerConfig{}, models.AuthConfig{JWTSecret: "test-secret"})
}

func setupTestServerWith(t *testing.T, serverCfg models.ServerConfig, authCfg models.AuthConfig) *testServer {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(db.Close)

	registry := exchange.NewRegistry(nil, nil)
	registry.Register("binance", func(creds exchange.Credentials, opts exchange.ClientOptions) (exchange.Client, error) {
		return &stubClient{connected: creds.ApiKey != "bad-key"}, nil
	})

	svc, err := api.NewDashboardService(db, registry, nil, models.CleanupConfig{})
	if err != nil {
		t.Fatalf("NewDashboardService failed: %v", err)
	}
	authService, err := auth.NewService(db, authCfg)
	if err != nil {
		t.Fatalf("auth.NewService failed: %v", err)
	}

	router, err := NewRouter(svc, authService, serverCfg, models.AuthConfig{})
	if err != nil {
		t.Fatalf("NewRouter failed: %v", err)
	}
	return &testServer{router: router, db: db, auth: authService}
}

// addUser registers a user and returns it with a session token.
func (s *testServer) addUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user, err := s.auth.Register(context.Background(), models.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	token, err := s.auth.IssueToken(user.Id)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	return user, token
}

func (s *testServer) addOrganization(t *testing.T, owner *models.User, slug string) *models.Organization {
	t.Helper()
	org, err := s.db.CreateOrganization(context.Background(), store.CreateOrganizationParams{
		Name:        strings.ToUpper(slug),
		Slug:        slug,
		OwnerId:     owner.Id,
		MakeCurrent: true,
	})
	if err != nil {
		t.Fatalf("CreateOrganization(%s) failed: %v", slug, err)
	}
	return org
}

type request struct {
	method  string
	path    string
	token   string
	form    url.Values
	htmx    bool
	headers map[string]string
}

func (s *testServer) do(req request) *httptest.ResponseRecorder {
	var body *strings.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	} else {
		body = strings.NewReader("")
	}

	httpReq := httptest.NewRequest(req.method, req.path, body)
	if req.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.htmx {
		httpReq.Header.Set("HX-Request", "true")
	}
	for key, value := range req.headers {
		httpReq.Header.Set(key, value)
	}

	rec := httptest.NewRecorder()
	s.router.Handler().ServeHTTP(rec, httpReq)
	return rec
}

// toastMessage decodes the HX-Trigger toast of a response.
func toastMessage(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	header := rec.Header().Get("HX-Trigger")
	if header == "" {
		return "", ""
	}
	var payload map[string]toast
	if err := json.Unmarshal([]byte(header), &payload); err != nil {
		t.Fatalf("Invalid HX-Trigger %q: %v", header, err)
	}
	return payload["showToast"].Message, payload["showToast"].Type
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(request{method: http.MethodGet, path: "/health"})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("Unexpected health body %s", rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "missing token", want: "Authentication required"},
		{name: "bad token", token: "not-a-jwt", want: "Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(request{method: http.MethodGet, path: "/balances", token: tt.token})
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("Expected 401, got %d", rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Invalid JSON body: %v", err)
			}
			if body["error"] != tt.want {
				t.Errorf("Expected error %q, got %q", tt.want, body["error"])
			}
		})
	}
}

func TestAuthCookie(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	s.addOrganization(t, user, "acme")

	httpReq := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	httpReq.AddCookie(&http.Cookie{Name: authCookieName, Value: token})
	httpReq.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	s.router.Handler().ServeHTTP(rec, httpReq)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 with cookie auth, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Aggregated balances for ACME") {
		t.Errorf("Expected dashboard for the current organization, got %s", rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	s := setupTestServer(t)
	s.addUser(t, "alice")

	rec := s.do(request{method: http.MethodPost, path: "/login", htmx: true, form: url.Values{
		"username": {"alice"},
		"password": {testPassword},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/" {
		t.Errorf("Expected HX-Redirect /, got %q", got)
	}

	var found bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == authCookieName && cookie.Value != "" && cookie.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Error("Expected an httpOnly auth cookie")
	}

	rec = s.do(request{method: http.MethodPost, path: "/login", htmx: true, form: url.Values{
		"username": {"alice"},
		"password": {"wrong"},
	}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for wrong password, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Errorf("Expected the login form with an error, got %s", rec.Body.String())
	}
}

func TestLogin_ThrottleIgnoresForwardedFor(t *testing.T) {
	tests := []struct {
		name      string
		serverCfg models.ServerConfig
		wantBlock bool
	}{
		{name: "no trusted proxies", serverCfg: models.ServerConfig{}, wantBlock: true},
		{name: "trusted proxy forwards client", serverCfg: models.ServerConfig{TrustedProxies: []string{"192.0.2.0/24"}}, wantBlock: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServerWith(t, tt.serverCfg, models.AuthConfig{
				JWTSecret:          "test-secret",
				LoginMaxAttempts:   3,
				LoginLockoutWindow: time.Minute,
			})
			s.addUser(t, "alice")

			var blocked int
			for i := 0; i < 6; i++ {
				rec := s.do(request{
					method:  http.MethodPost,
					path:    "/login",
					htmx:    true,
					form:    url.Values{"username": {"alice"}, "password": {"wrong"}},
					headers: map[string]string{"X-Forwarded-For": fmt.Sprintf("198.51.100.%d", i+1)},
				})
				if strings.Contains(rec.Body.String(), "Too many login attempts. Please try again later.") {
					blocked++
				}
			}

			if tt.wantBlock && blocked != 3 {
				t.Errorf("Expected the last 3 attempts blocked, got %d", blocked)
			}
			if !tt.wantBlock && blocked != 0 {
				t.Errorf("Expected distinct forwarded clients to be counted apart, got %d blocked", blocked)
			}
		})
	}
}

func TestNewRouter_InvalidTrustedProxy(t *testing.T) {
	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(db.Close)

	svc, err := api.NewDashboardService(db, exchange.NewRegistry(nil, nil), nil, models.CleanupConfig{})
	if err != nil {
		t.Fatalf("NewDashboardService failed: %v", err)
	}
	authService, err := auth.NewService(db, models.AuthConfig{JWTSecret: "test-secret"})
	if err != nil {
		t.Fatalf("auth.NewService failed: %v", err)
	}

	if _, err := NewRouter(svc, authService, models.ServerConfig{TrustedProxies: []string{"not-an-ip"}}, models.AuthConfig{}); err == nil {
		t.Error("Expected an error for an invalid trusted proxy")
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(request{method: http.MethodPost, path: "/register", htmx: true, form: url.Values{
		"username": {"al"},
		"email":    {"not-an-email"},
		"password": {"123"},
	}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="al"`) {
		t.Error("Expected the submitted username to be kept in the form")
	}
}

func TestLogout(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(request{method: http.MethodPost, path: "/logout", htmx: true})
	if rec.Code != http.StatusOK || rec.Header().Get("HX-Redirect") != "/" {
		t.Fatalf("Unexpected logout response %d %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == authCookieName && cookie.MaxAge >= 0 {
			t.Errorf("Expected the auth cookie to be cleared, got MaxAge %d", cookie.MaxAge)
		}
	}
}

func TestRender_LayoutOnlyForFullPageLoads(t *testing.T) {
	s := setupTestServer(t)

	full := s.do(request{method: http.MethodGet, path: "/login"})
	if !strings.Contains(full.Body.String(), "<!DOCTYPE html>") {
		t.Error("Expected a full page without HX-Request")
	}

	partial := s.do(request{method: http.MethodGet, path: "/login", htmx: true})
	if strings.Contains(partial.Body.String(), "<!DOCTYPE html>") {
		t.Error("Expected a bare fragment for htmx requests")
	}
}

func TestOrganizationRequired(t *testing.T) {
	s := setupTestServer(t)
	_, token := s.addUser(t, "loner")

	rec := s.do(request{method: http.MethodGet, path: "/balances", token: token, htmx: true})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	msg, kind := toastMessage(t, rec)
	if msg != organizationRequiredMessage || kind != toastError {
		t.Errorf("Unexpected toast %q (%s)", msg, kind)
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/withdraw", token: token, htmx: true, form: url.Values{}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for withdraw without organization, got %d", rec.Code)
	}
}

func TestNetworks_MissingParams(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	s.addOrganization(t, user, "acme")

	rec := s.do(request{method: http.MethodGet, path: "/api/networks?coin=BTC", token: token})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Missing coin or exchange parameter") {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestCoinBalance_ExchangeNotConfigured(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	s.addOrganization(t, user, "acme")

	rec := s.do(request{method: http.MethodGet, path: "/api/balance?coin=BTC&exchange=binance", token: token, htmx: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Exchange not configured") {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestWithdrawForm_NoExchanges(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	s.addOrganization(t, user, "acme")

	rec := s.do(request{method: http.MethodGet, path: "/withdraw", token: token, htmx: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No Exchanges Configured") {
		t.Errorf("Expected the no-exchanges view, got %s", rec.Body.String())
	}
}

func TestSubmitWithdrawal(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	org := s.addOrganization(t, user, "acme")

	t.Run("validation error", func(t *testing.T) {
		rec := s.do(request{method: http.MethodPost, path: "/api/withdraw", token: token, htmx: true, form: url.Values{
			"exchange": {"binance"},
			"coin":     {"USDT"},
			"network":  {"TRX"},
			"amount":   {"-5"},
			"address":  {"TXyz"},
		}})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rec.Code)
		}
		msg, kind := toastMessage(t, rec)
		if !strings.HasPrefix(msg, "Validation error: ") || kind != toastError {
			t.Errorf("Unexpected toast %q (%s)", msg, kind)
		}
	})

	t.Run("recorded", func(t *testing.T) {
		rec := s.do(request{method: http.MethodPost, path: "/api/withdraw", token: token, htmx: true, form: url.Values{
			"exchange": {"binance"},
			"coin":     {"USDT"},
			"network":  {"TRX"},
			"amount":   {"12.5"},
			"address":  {"TXyz"},
			"memo":     {"42"},
		}})
		if rec.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		msg, kind := toastMessage(t, rec)
		if !strings.HasPrefix(msg, "Withdrawal request submitted successfully! Transaction ID: ") || kind != toastSuccess {
			t.Errorf("Unexpected toast %q (%s)", msg, kind)
		}

		records, err := s.db.ListWithdrawals(context.Background(), org.Id, 10)
		if err != nil {
			t.Fatalf("ListWithdrawals failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("Expected 1 withdrawal, got %d", len(records))
		}
		if records[0].Status != models.WithdrawStatusPending || records[0].Tag != "42" {
			t.Errorf("Unexpected record %+v", records[0])
		}
		if !strings.HasSuffix(msg, records[0].Id) {
			t.Errorf("Expected toast to carry the record id %s", records[0].Id)
		}

		detail := s.do(request{method: http.MethodGet, path: "/api/transaction/" + records[0].Id, token: token, htmx: true})
		if detail.Code != http.StatusOK || !strings.Contains(detail.Body.String(), "TXyz") {
			t.Errorf("Unexpected transaction detail %d %s", detail.Code, detail.Body.String())
		}
	})
}

func TestOrganizationSettings_OwnerOnly(t *testing.T) {
	s := setupTestServer(t)
	owner, ownerToken := s.addUser(t, "alice")
	s.addOrganization(t, owner, "acme")
	other, otherToken := s.addUser(t, "bob")
	s.addOrganization(t, other, "bobco")

	rec := s.do(request{method: http.MethodGet, path: "/organizations/acme/settings", token: otherToken, htmx: true})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", rec.Code)
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/organizations" {
		t.Errorf("Expected HX-Redirect /organizations, got %q", got)
	}
	if msg, _ := toastMessage(t, rec); msg != "Only organization owners can access settings" {
		t.Errorf("Unexpected toast %q", msg)
	}

	rec = s.do(request{method: http.MethodGet, path: "/organizations/acme/settings", token: ownerToken, htmx: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 for owner, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "alice@example.com") {
		t.Errorf("Expected member list in settings, got %s", rec.Body.String())
	}

	rec = s.do(request{method: http.MethodGet, path: "/organizations/missing/settings", token: ownerToken, htmx: true})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown slug, got %d", rec.Code)
	}
}

func TestInvitationFlow(t *testing.T) {
	s := setupTestServer(t)
	owner, ownerToken := s.addUser(t, "alice")
	org := s.addOrganization(t, owner, "acme")
	joiner, joinerToken := s.addUser(t, "bob")

	rec := s.do(request{method: http.MethodPost, path: "/api/organizations/" + org.Id + "/invitations", token: ownerToken, htmx: true, form: url.Values{
		"email": {"bob@example.com"},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("HX-Redirect"); got != "/organizations/acme/settings" {
		t.Errorf("Unexpected redirect %q", got)
	}

	invitations, err := s.db.ListPendingInvitations(context.Background(), org.Id)
	if err != nil || len(invitations) != 1 {
		t.Fatalf("Expected one pending invitation, got %d (%v)", len(invitations), err)
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/organizations/join", token: joinerToken, htmx: true, form: url.Values{
		"invitationCode": {invitations[0].Token},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on join, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg, _ := toastMessage(t, rec); msg != "Successfully joined organization" {
		t.Errorf("Unexpected toast %q", msg)
	}

	membership, err := s.db.GetMembership(context.Background(), joiner.Id, org.Id)
	if err != nil {
		t.Fatalf("Expected membership after join: %v", err)
	}
	if membership.Role != models.RoleMember {
		t.Errorf("Expected role member, got %s", membership.Role)
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/organizations/" + org.Id + "/invitations", token: joinerToken, htmx: true, form: url.Values{
		"email": {"carol@example.com"},
	}})
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for non-owner invite, got %d", rec.Code)
	}
}

func TestJoinOrganization_Errors(t *testing.T) {
	s := setupTestServer(t)
	_, token := s.addUser(t, "bob")

	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "empty", code: "", want: "Invitation code is required"},
		{name: "unknown", code: "nope", want: "Invalid or expired invitation code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(request{method: http.MethodPost, path: "/api/organizations/join", token: token, htmx: true, form: url.Values{
				"invitationCode": {tt.code},
			}})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d", rec.Code)
			}
			if msg, _ := toastMessage(t, rec); msg != tt.want {
				t.Errorf("Expected toast %q, got %q", tt.want, msg)
			}
		})
	}
}

func TestExchangeConfig_SaveAndUpdate(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	org := s.addOrganization(t, user, "acme")
	ctx := context.Background()

	rec := s.do(request{method: http.MethodPost, path: "/api/exchanges", token: token, htmx: true, form: url.Values{
		"exchangeName": {"Binance"},
		"apiKey":       {"key"},
		"apiSecret":    {"secret"},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	configs, err := s.db.ListExchangeConfigs(ctx, org.Id)
	if err != nil || len(configs) != 1 {
		t.Fatalf("Expected one config, got %d (%v)", len(configs), err)
	}
	cfg := configs[0]
	if cfg.ExchangeName != "binance" || !cfg.IsActive || !cfg.IsValid || cfg.Testnet {
		t.Errorf("Unexpected saved config %+v", cfg)
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/exchanges", token: token, htmx: true, form: url.Values{
		"exchangeName": {"binance"},
		"apiKey":       {"key2"},
		"apiSecret":    {"secret2"},
	}})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "already configured") {
		t.Errorf("Expected duplicate rejection, got %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/exchanges/" + cfg.Id, token: token, htmx: true, form: url.Values{
		"exchangeName": {"binance"},
		"apiKey":       {"key"},
		"apiSecret":    {"secret"},
		"testnet":      {"on"},
		"isActive":     {"off"},
	}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, err := s.db.GetExchangeConfig(ctx, org.Id, cfg.Id)
	if err != nil {
		t.Fatalf("GetExchangeConfig failed: %v", err)
	}
	if updated.IsActive || !updated.Testnet {
		t.Errorf("Expected inactive testnet config, got %+v", updated)
	}
}

func TestExchangeConfig_RejectedCredentialsNotStored(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	org := s.addOrganization(t, user, "acme")

	rec := s.do(request{method: http.MethodPost, path: "/api/exchanges", token: token, htmx: true, form: url.Values{
		"exchangeName": {"binance"},
		"apiKey":       {"bad-key"},
		"apiSecret":    {"secret"},
	}})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid credentials") {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}

	configs, err := s.db.ListExchangeConfigs(context.Background(), org.Id)
	if err != nil {
		t.Fatalf("ListExchangeConfigs failed: %v", err)
	}
	if len(configs) != 0 {
		t.Errorf("Expected no stored config, got %d", len(configs))
	}
}

func TestWallets(t *testing.T) {
	s := setupTestServer(t)
	user, token := s.addUser(t, "alice")
	org := s.addOrganization(t, user, "acme")

	rec := s.do(request{method: http.MethodPost, path: "/api/wallets", token: token, htmx: true, form: url.Values{
		"label": {"Cold storage"},
		"coin":  {"BTC"},
	}})
	if msg, _ := toastMessage(t, rec); rec.Code != http.StatusBadRequest || msg != "All fields are required" {
		t.Fatalf("Expected validation toast, got %d %q", rec.Code, msg)
	}

	rec = s.do(request{method: http.MethodPost, path: "/api/wallets", token: token, htmx: true, form: url.Values{
		"label":    {"Cold storage"},
		"coin":     {"BTC"},
		"network":  {"BTC"},
		"address":  {"bc1qexample"},
		"exchange": {"binance"},
	}})
	if rec.Code != http.StatusOK || rec.Header().Get("HX-Redirect") != "/wallets" {
		t.Fatalf("Unexpected create response %d %q", rec.Code, rec.Header().Get("HX-Redirect"))
	}

	wallets, err := s.db.ListWallets(context.Background(), org.Id)
	if err != nil || len(wallets) != 1 {
		t.Fatalf("Expected one wallet, got %d (%v)", len(wallets), err)
	}

	rec = s.do(request{method: http.MethodGet, path: "/api/wallet-address?wallet=" + wallets[0].Id, token: token, htmx: true})
	if !strings.Contains(rec.Body.String(), `value="bc1qexample"`) {
		t.Errorf("Expected the address input to be filled, got %s", rec.Body.String())
	}

	rec = s.do(request{method: http.MethodDelete, path: "/api/wallets/" + wallets[0].Id, token: token, htmx: true})
	if msg, _ := toastMessage(t, rec); msg != "Wallet deleted successfully!" {
		t.Errorf("Unexpected delete toast %q", msg)
	}
}
