package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/itemvault/api/rest"
	"github.com/kasuganosora/itemvault/audit"
	"github.com/kasuganosora/itemvault/scheduler"
	"github.com/kasuganosora/itemvault/store"
	"github.com/kasuganosora/itemvault/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	r     *gin.Engine
	db    *gorm.DB
	audit *audit.Service
	sched *scheduler.Scheduler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, rest.RouteOptions{})
}

// newTestServerWith mounts the routes with opts. The audit service and the
// admin whitelist are always filled in.
func newTestServerWith(t *testing.T, opts rest.RouteOptions) *testServer {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	items := store.NewEntityStore(db, testutil.SetupTestCache(t), 0, logger)
	auditSvc := audit.New(db, audit.Config{}, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	opts.Auditor = auditSvc
	opts.AdminIPs = []string{"127.0.0.1"}
	r := gin.New()
	rest.RegisterRoutes(r, rest.Handlers{
		Items:     rest.NewItemHandler(items),
		Users:     rest.NewUserHandler(store.NewUserStore(db, logger)),
		Inventory: rest.NewInventoryHandler(store.NewAssociationStore(db, logger)),
		Admin:     rest.NewAdminHandler(items, sched, auditSvc, logger),
	}, opts)
	return &testServer{r: r, db: db, audit: auditSvc, sched: sched}
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf *bytes.Reader
	switch b := body.(type) {
	case nil:
		buf = bytes.NewReader(nil)
	case string:
		buf = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		buf = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func weapon(name string) map[string]interface{} {
	return map[string]interface{}{"name": name, "damage": 10, "ranged": false, "weight": 5}
}

func user(name string) map[string]interface{} {
	return map[string]interface{}{"username": name, "health": 100, "armour": 2, "mana": 40, "weight": 60}
}

func createdID(t *testing.T, w *httptest.ResponseRecorder, key string) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return int64(decode(t, w)[key].(float64))
}
