package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"kanban-board-api/internal/database"
	"kanban-board-api/internal/models"
	"kanban-board-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func postLogin(r *gin.Engine, username, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_CreatesUserIfNotExists(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	r := gin.New()
	r.POST("/api/login", Login(testTokens))

	w := postLogin(r, "newuser", "sha256-from-fe")
	require.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	claims, err := testTokens.Validate(resp.Token)
	require.NoError(t, err)
	require.Equal(t, resp.UserID, claims.UserID)

	var stored models.User
	require.NoError(t, db.Where("username = ?", "newuser").First(&stored).Error)
	require.NotEqual(t, "sha256-from-fe", stored.Password)
}

func TestLogin_ChecksPasswordOfExistingUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	r := gin.New()
	r.POST("/api/login", Login(testTokens))

	require.Equal(t, http.StatusOK, postLogin(r, "alice", "first").Code)
	require.Equal(t, http.StatusOK, postLogin(r, "alice", "first").Code)
	require.Equal(t, http.StatusUnauthorized, postLogin(r, "alice", "second").Code)
}

func TestLogin_BadRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/login", Login(testTokens))

	require.Equal(t, http.StatusBadRequest, postLogin(r, "", "").Code)
}
