// helpers_test.go
package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go_cyber_aware/internal/config"
	"go_cyber_aware/internal/content"
	"go_cyber_aware/internal/handlers"
	"go_cyber_aware/internal/model"
	"go_cyber_aware/internal/repository"
	"go_cyber_aware/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock はテストから進められる時計
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	server *httptest.Server
	clock  *testClock
	store  *repository.MemoryStore
	cfg    *config.Config
}

// newTestEnv はメモリストアを使ったテストサーバーを起動します。
func newTestEnv(t *testing.T, authEnabled bool) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{Enabled: authEnabled, JWTSecret: "test-secret"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	cfg.ApplyDefaults()

	bank, err := content.LoadBank("")
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	repo := repository.NewProgressRepository(store)
	locker := repository.NewLocalLocker()

	svc := handlers.Services{
		Scope:         service.NewScopeService(repo, locker),
		XP:            service.NewXPService(repo, locker),
		Streak:        service.NewStreakService(repo, locker, cfg.Engine),
		Daily:         service.NewDailyChallengeService(repo, locker, bank, cfg.Engine),
		History:       service.NewHistoryService(repo, locker, bank, cfg.Engine),
		Certification: service.NewCertificationService(repo, locker, bank, cfg.Engine),
	}

	clock := &testClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := httptest.NewServer(handlers.NewRouter(cfg, logger, svc, store, clock.Now))
	t.Cleanup(server.Close)

	return &testEnv{server: server, clock: clock, store: store, cfg: cfg}
}

// httpRequestDetails はHTTPリクエストの送信に必要な情報をまとめます。
type httpRequestDetails struct {
	Method  string
	Path    string
	Body    interface{}
	Headers map[string]string
}

// sendRequest はHTTPリクエストを送信し、ステータスコードを検証してボディを返します。
func sendRequest(t *testing.T, server *httptest.Server, details httpRequestDetails, expectedCode int) []byte {
	t.Helper()

	var reqBodyReader io.Reader
	if details.Body != nil {
		if strPayload, ok := details.Body.(string); ok {
			reqBodyReader = strings.NewReader(strPayload)
		} else {
			reqBodyBytes, err := json.Marshal(details.Body)
			require.NoError(t, err, "Failed to marshal request body")
			reqBodyReader = bytes.NewBuffer(reqBodyBytes)
		}
	}

	req, err := http.NewRequest(details.Method, server.URL+details.Path, reqBodyReader)
	require.NoError(t, err, "Failed to create request")
	if reqBodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range details.Headers {
		req.Header.Set(key, value)
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err, "Failed to execute request")
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Failed to read response body")
	assert.Equal(t, expectedCode, resp.StatusCode, "Status code mismatch: %s", string(respBodyBytes))

	return respBodyBytes
}

// decode はレスポンスボディを dst にデコードします。
func decode(t *testing.T, body []byte, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(body, dst), string(body))
}

// verifyErrorCode はエラーレスポンスのコードを検証します。
func verifyErrorCode(t *testing.T, body []byte, wantCode string) {
	t.Helper()
	var errResp model.APIErrorResponse
	decode(t, body, &errResp)
	assert.Equal(t, wantCode, errResp.Error.Code)
	assert.NotEmpty(t, errResp.Error.Message)
}

func deviceHeaders(deviceID string) map[string]string {
	return map[string]string{"X-Device-ID": deviceID}
}
