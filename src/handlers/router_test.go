package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/tradeops/backend/src/catalog"
	"github.com/username/tradeops/backend/src/export"
	"github.com/username/tradeops/backend/src/models"
	"github.com/username/tradeops/backend/src/security"
	"github.com/username/tradeops/backend/src/services"
	"github.com/username/tradeops/backend/src/store"
)

const (
	testAdminUser     = "root"
	testAdminPassword = "correct horse battery staple"
)

type testServer struct {
	handler http.Handler
	auth    *security.AuthService
	guard   *export.Guard
	feed    *services.LiveFeed
}

func newTestServer(t *testing.T, csrf bool) *testServer {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	repo := store.NewMemoryStore()
	_, err = store.Seed(context.Background(), repo, cat)
	require.NoError(t, err)

	auth := security.NewAuthService("test-secret", time.Hour)
	accounts, err := services.NewAccountService(testAdminUser, testAdminPassword, "", auth, services.NewMFAService())
	require.NoError(t, err)

	logsView, err := cat.View("logs")
	require.NoError(t, err)
	stats := services.NewStatsService(repo, cat.Names(), time.Minute)
	feed := services.NewLiveFeed(repo, stats, time.Hour, logsView.MaxRecords)
	records := services.NewRecordService(repo, cat, stats, feed)
	sessions := services.NewListSessions(time.Minute, 10*time.Millisecond)
	guard := export.NewGuard()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		feed.Stop()
		cancel()
		sessions.Close()
	})

	h := NewRouter(Deps{
		Base:          ctx,
		Auth:          auth,
		Accounts:      accounts,
		Records:       records,
		Sessions:      sessions,
		Imports:       services.NewImportService(records, 0),
		Stats:         stats,
		Feed:          feed,
		Tester:        services.NewSourceTester(records, 2*time.Second, 0),
		Exporter:      export.New(),
		ExportGuard:   guard,
		CSRFEnabled:   csrf,
		MaxUploadSize: 1 << 20,
	})
	return &testServer{handler: h, auth: auth, guard: guard, feed: feed}
}

func (s *testServer) token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, _, err := s.auth.GenerateToken(subject, role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

type pageBody struct {
	Items        []map[string]any `json:"items"`
	TotalRecords int              `json:"totalRecords"`
	TotalPages   int              `json:"totalPages"`
	Page         int              `json:"page"`
	PageButtons  []int            `json:"pageButtons"`
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t, false)
	rr := s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_Login(t *testing.T) {
	s := newTestServer(t, false)

	rr := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": testAdminUser, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": testAdminUser, "password": testAdminPassword})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	session := decode[services.Session](t, rr)
	assert.Equal(t, security.RoleSuperAdmin, session.Role)
	require.NotEmpty(t, session.AccessToken)

	rr = s.do(t, http.MethodGet, "/api/auth/me", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[map[string]any](t, rr)
	assert.Equal(t, testAdminUser, me["username"])
	assert.Equal(t, false, me["mfa_enabled"])
}

func TestRouter_AuthRequired(t *testing.T) {
	s := newTestServer(t, false)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/records/trades", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/records/trades", "garbage", nil).Code)
}

func TestRouter_ListRecords(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	t.Run("filter by status", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades?status=completed", tok, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		page := decode[pageBody](t, rr)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "TRD-1005", page.Items[0]["id"])
	})

	t.Run("bracketed filter and all", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades?filter[platform]=telegram&status=all", tok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 3, decode[pageBody](t, rr).TotalRecords)
	})

	t.Run("sort and paginate", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades?sort=payoutAmount&order=desc&pageSize=10", tok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		page := decode[pageBody](t, rr)
		require.NotEmpty(t, page.Items)
		assert.Equal(t, "TRD-1005", page.Items[0]["id"])
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, []int{1}, page.PageButtons)
	})

	t.Run("search", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades?q=KEMI", tok, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 2, decode[pageBody](t, rr).TotalRecords)
	})

	t.Run("rejections", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/records/trades?pageSize=7", tok, nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/records/trades?sort=nope", tok, nil).Code)
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/records/trades?from=yesterday", tok, nil).Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/records/widgets", tok, nil).Code)
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/records/trades/TRD-9999", tok, nil).Code)
	})
}

func TestRouter_RecordLifecycle(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	rr := s.do(t, http.MethodPost, "/api/records/trades", tok, map[string]any{
		"username": "bola", "type": "crypto", "asset": "BTC", "amount": 0.01,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[map[string]any](t, rr)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "started", created["status"])

	rr = s.do(t, http.MethodPost, "/api/records/trades/"+id+"/status", tok, map[string]string{"status": "awaiting_proof"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "awaiting_proof", decode[map[string]any](t, rr)["status"])

	rr = s.do(t, http.MethodPut, "/api/records/trades/"+id, tok, map[string]any{"id": "TRD-OTHER"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.do(t, http.MethodPost, "/api/records/trades", tok, map[string]any{"id": "TRD-1001", "username": "x", "type": "crypto", "asset": "BTC", "amount": 1})
	assert.Equal(t, http.StatusConflict, rr.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/records/trades/"+id, tok, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/records/trades/"+id, tok, nil).Code)
}

func TestRouter_TransitionFromTerminalStatus(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	rr := s.do(t, http.MethodPost, "/api/records/trades/TRD-1005/status", tok, map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRouter_AdminsRequireSuperAdmin(t *testing.T) {
	s := newTestServer(t, false)
	body := map[string]any{"status": "suspended"}

	rr := s.do(t, http.MethodPut, "/api/records/admins/ADM-002", s.token(t, "agent", security.RoleSupport), body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Reading admins is open to every role.
	rr = s.do(t, http.MethodGet, "/api/records/admins", s.token(t, "agent", security.RoleSupport), nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(t, http.MethodPut, "/api/records/admins/ADM-002", s.token(t, "boss", security.RoleSuperAdmin), body)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/api/admin/mfa/setup", s.token(t, "agent", security.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestRouter_Export(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	t.Run("csv download", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades/export?status=completed&filename=done", tok, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, export.CSV.ContentType(), rr.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="done.csv"`, rr.Header().Get("Content-Disposition"))
		assert.Contains(t, rr.Body.String(), "TRD-1005")
		assert.NotContains(t, rr.Body.String(), "TRD-1001")
	})

	t.Run("no data", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades/export?format=json&asset=Nothing", tok, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), "No data to export")
	})

	t.Run("unsupported format", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades/export?format=docx", tok, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("busy", func(t *testing.T) {
		release, err := s.guard.Begin("ops", export.PDF)
		require.NoError(t, err)
		defer release()

		rr := s.do(t, http.MethodGet, "/api/records/trades/export?format=csv", tok, nil)
		assert.Equal(t, http.StatusConflict, rr.Code)

		// Another admin is not blocked.
		rr = s.do(t, http.MethodGet, "/api/records/trades/export?format=csv", s.token(t, "other", security.RoleAdmin), nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("bundle", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/records/trades/export/bundle?formats=csv,json,csv", tok, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
		assert.Empty(t, rr.Header().Get(exportErrorsHeader))
		assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")))
	})
}

func TestRouter_ListSession(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	type sessionBody struct {
		State struct {
			Page     int `json:"page"`
			PageSize int `json:"pageSize"`
			Filter   struct {
				Search string            `json:"search"`
				Equals map[string]string `json:"equals"`
			} `json:"filter"`
		} `json:"state"`
		TotalRecords int `json:"totalRecords"`
	}

	rr := s.do(t, http.MethodPatch, "/api/records/trades/session", tok, map[string]any{
		"filters": map[string]string{"status": "completed"},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode[sessionBody](t, rr)
	assert.Equal(t, 1, body.TotalRecords)
	assert.Equal(t, "completed", body.State.Filter.Equals["status"])

	rr = s.do(t, http.MethodPatch, "/api/records/trades/session", tok, map[string]any{
		"filters": map[string]string{"status": "all"},
		"search":  "kemi", "flushSearch": true,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode[sessionBody](t, rr)
	assert.Equal(t, 2, body.TotalRecords)
	assert.Equal(t, "kemi", body.State.Filter.Search)
	assert.Empty(t, body.State.Filter.Equals)

	rr = s.do(t, http.MethodPatch, "/api/records/trades/session", tok, map[string]any{"pageSize": 7})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, "/api/records/trades/session", tok, nil).Code)
	rr = s.do(t, http.MethodGet, "/api/records/trades/session", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body = decode[sessionBody](t, rr)
	assert.Equal(t, 6, body.TotalRecords)
	assert.Equal(t, 1, body.State.Page)
}

func TestRouter_ListSessionRejectsWholePatch(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	patches := []map[string]any{
		{"filters": map[string]string{"status": "completed"}, "pageSize": 7},
		{"filters": map[string]string{"status": "paid", "username": "kemi"}},
		{"search": "kemi", "flushSearch": true, "sortBy": "nope"},
		{"clear": true, "from": "yesterday-ish"},
		{"filters": map[string]string{"status": "paid"}, "move": "sideways"},
	}
	for _, patch := range patches {
		rr := s.do(t, http.MethodPatch, "/api/records/trades/session", tok, patch)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "%v", patch)
	}

	rr := s.do(t, http.MethodGet, "/api/records/trades/session", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		State struct {
			PageSize int `json:"pageSize"`
			Filter   struct {
				Search string            `json:"search"`
				Equals map[string]string `json:"equals"`
			} `json:"filter"`
			PendingSearch *string `json:"pendingSearch"`
		} `json:"state"`
		TotalRecords int `json:"totalRecords"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 6, body.TotalRecords)
	assert.Empty(t, body.State.Filter.Equals)
	assert.Empty(t, body.State.Filter.Search)
	assert.Nil(t, body.State.PendingSearch)
	assert.Equal(t, 10, body.State.PageSize)
}

func multipartCSV(t *testing.T, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="trades.csv"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestRouter_Import(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	send := func(contentType, content string) *httptest.ResponseRecorder {
		body, formType := multipartCSV(t, contentType, content)
		req := httptest.NewRequest(http.MethodPost, "/api/records/trades/import", body)
		req.Header.Set("Content-Type", formType)
		req.Header.Set("Authorization", "Bearer "+tok)
		rr := httptest.NewRecorder()
		s.handler.ServeHTTP(rr, req)
		return rr
	}

	rr := send("text/csv", "username,type,asset,amount\nbola,crypto,BTC,0.01\nbad,unknown,BTC,1\n")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[services.ImportResult](t, rr)
	assert.Equal(t, 1, res.Imported)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 3, res.Failed[0].Row)

	rr = send("application/pdf", "username\nbola\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = send("text/csv", "username,colour\nbola,red\n")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	list := s.do(t, http.MethodGet, "/api/records/trades", tok, nil)
	assert.Equal(t, 7, decode[pageBody](t, list).TotalRecords)
}

func TestRouter_SourceTest(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	rr := s.do(t, http.MethodPut, "/api/records/api_sources/SRC-003", tok, map[string]any{"baseUrl": upstream.URL, "healthPath": "/ping"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/sources/SRC-003/test", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, true, decode[map[string]any](t, rr)["ok"])

	rr = s.do(t, http.MethodGet, "/api/records/api_sources/SRC-003", tok, nil)
	assert.Equal(t, "active", decode[map[string]any](t, rr)["status"])

	rr = s.do(t, http.MethodPut, "/api/records/api_sources/SRC-001", tok, map[string]any{"baseUrl": upstream.URL, "healthPath": "/down"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rr = s.do(t, http.MethodPost, "/api/sources/SRC-001/test", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	failed := decode[map[string]any](t, rr)
	assert.Equal(t, false, failed["ok"])
	assert.EqualValues(t, http.StatusServiceUnavailable, failed["statusCode"])

	// A failed check leaves the stored source untouched.
	rr = s.do(t, http.MethodGet, "/api/records/api_sources/SRC-001", tok, nil)
	stored := decode[map[string]any](t, rr)
	assert.Equal(t, "active", stored["status"])
	assert.EqualValues(t, 182, stored["latencyMs"])

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/sources/SRC-404/test", tok, nil).Code)
}

func TestRouter_LiveMode(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	rr := s.do(t, http.MethodPost, "/api/logs/live/start", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, liveStatus{Running: true, Changed: true}, decode[liveStatus](t, rr))

	rr = s.do(t, http.MethodPost, "/api/logs/live/start", tok, nil)
	assert.Equal(t, liveStatus{Running: true, Changed: false}, decode[liveStatus](t, rr))

	rr = s.do(t, http.MethodGet, "/api/logs/live/status", tok, nil)
	assert.True(t, decode[liveStatus](t, rr).Running)

	rr = s.do(t, http.MethodPost, "/api/logs/live/stop", tok, nil)
	assert.Equal(t, liveStatus{Running: false, Changed: true}, decode[liveStatus](t, rr))
	assert.False(t, s.feed.Running())
}

func TestRouter_LiveLogsWebsocket(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/logs/live"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+s.token(t, "ops", security.RoleAdmin), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return s.feed.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = s.feed.Append(context.Background(), models.LogEntry{
		Level:   models.LevelWarning,
		Source:  models.SourceAPI,
		Message: "Rate source timed out",
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev models.FeedEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, models.FeedEventAppend, ev.Type)
	assert.Equal(t, "Rate source timed out", ev.Record["message"])
	assert.Equal(t, models.LevelWarning, ev.Record["level"])
	assert.NotEmpty(t, ev.Record.ID())

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return s.feed.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_AdminStats(t *testing.T) {
	s := newTestServer(t, false)
	tok := s.token(t, "ops", security.RoleAdmin)

	rr := s.do(t, http.MethodGet, "/api/admin/stats", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.NotEmpty(t, decode[map[string]any](t, rr))

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPost, "/api/admin/stats/clear-cache", tok, nil).Code)
}

func TestRouter_CSRF(t *testing.T) {
	s := newTestServer(t, true)
	creds := map[string]string{"username": testAdminUser, "password": testAdminPassword}

	rr := s.do(t, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	tokenRR := s.do(t, http.MethodGet, "/api/auth/csrf", "", nil)
	require.Equal(t, http.StatusOK, tokenRR.Code)
	csrfToken := tokenRR.Header().Get(csrfHeaderName)
	require.NotEmpty(t, csrfToken)
	cookies := tokenRR.Result().Cookies()
	require.NotEmpty(t, cookies)

	raw, err := json.Marshal(creds)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(string(raw)))
	req.Header.Set(csrfHeaderName, csrfToken)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Reads are not checked.
	rr = s.do(t, http.MethodGet, "/api/records/trades", s.token(t, "ops", security.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_UnknownAPIPath(t *testing.T) {
	s := newTestServer(t, false)
	rr := s.do(t, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
}
