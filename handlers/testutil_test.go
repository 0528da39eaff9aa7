package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"

	"pizza-franchise-api/config"
	"pizza-franchise-api/models"
	"pizza-franchise-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	testRouter *gin.Engine
	setupOnce  sync.Once
)

func setup(t *testing.T) *gin.Engine {
	t.Helper()
	setupOnce.Do(func() {
		gin.SetMode(gin.TestMode)
		os.Setenv("DB_PATH", "file::memory:?cache=shared")
		config.Load()
		config.InitDB(zap.NewNop())
		testRouter = gin.New()
		routes.SetupRoutes(testRouter)
	})
	return testRouter
}

func randomName() string {
	return uuid.NewString()[:10]
}

func doJSON(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	router := setup(t)

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// createDinerUser registers a fresh diner through the API and returns
// its user body, token, and password
func createDinerUser(t *testing.T) (map[string]interface{}, string, string) {
	t.Helper()
	name := randomName()
	password := "a"
	w := doJSON(t, http.MethodPost, "/api/auth", "", gin.H{
		"name":     name,
		"email":    name + "@diner.com",
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	return body["user"].(map[string]interface{}), body["token"].(string), password
}

// createAdminUser inserts an admin directly into the store, the way the
// platform operator would seed one, then logs it in through the API
func createAdminUser(t *testing.T) (models.User, string) {
	t.Helper()
	setup(t)

	name := randomName()
	hash, err := bcrypt.GenerateFromPassword([]byte("a"), bcrypt.DefaultCost)
	require.NoError(t, err)

	admin := models.User{
		Name:         name,
		Email:        name + "@admin.com",
		PasswordHash: string(hash),
		Roles:        []models.RoleGrant{{Role: models.RoleAdmin}},
	}
	require.NoError(t, config.DB.Create(&admin).Error)

	w := doJSON(t, http.MethodPut, "/api/auth", "", gin.H{"email": admin.Email, "password": "a"})
	require.Equal(t, http.StatusOK, w.Code)
	return admin, decodeBody(t, w)["token"].(string)
}

func createFranchise(t *testing.T, adminToken, franchiseeEmail string) map[string]interface{} {
	t.Helper()
	w := doJSON(t, http.MethodPost, "/api/franchise", adminToken, gin.H{
		"name":   randomName(),
		"admins": []gin.H{{"email": franchiseeEmail}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	return decodeBody(t, w)
}

func createStore(t *testing.T, franchiseID float64, token string) map[string]interface{} {
	t.Helper()
	w := doJSON(t, http.MethodPost, storePath(franchiseID), token, gin.H{"name": randomName()})
	require.Equal(t, http.StatusOK, w.Code)
	return decodeBody(t, w)
}

func storePath(franchiseID float64) string {
	return "/api/franchise/" + idStr(franchiseID) + "/store"
}

// idStr renders a JSON-decoded numeric id as a path segment
func idStr(id float64) string {
	return strconv.FormatUint(uint64(id), 10)
}
