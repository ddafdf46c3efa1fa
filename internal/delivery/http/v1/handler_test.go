package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/tasklist/internal/services"
	"github.com/adanyl0v/tasklist/internal/storage/sqlite"
)

type testServer struct {
	router *gin.Engine
	store  *sqlite.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	hashParams := &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	authService := services.NewAuthService(zerolog.Nop(), store, hashParams, "tasklist-test",
		[]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	taskService := services.NewTaskService(zerolog.Nop(), store, time.Second)

	router := gin.New()
	router.ContextWithFallback = true
	handler := New(zerolog.Nop(), authService, taskService)
	router.Use(handler.HandleRequestLogger)
	RegisterRoutes(router.Group("/api/v1"), handler)

	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, "/api/v1"+path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) register(t *testing.T, email string) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/auth/register", "",
		fmt.Sprintf(`{"name":"test","email":%q,"password":"secret1"}`, email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (s *testServer) createTask(t *testing.T, token, body string) taskResponse {
	t.Helper()

	w := s.do(t, http.MethodPost, "/tasks", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var task taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	return task
}

func (s *testServer) listTasks(t *testing.T, token, query string) []taskResponse {
	t.Helper()

	w := s.do(t, http.MethodGet, "/tasks"+query, token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tasks []taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tasks))
	return tasks
}

type validationResponse struct {
	Error  string               `json:"error"`
	Fields []fieldErrorResponse `json:"fields"`
}

func decodeValidation(t *testing.T, w *httptest.ResponseRecorder) validationResponse {
	t.Helper()

	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var resp validationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation failed", resp.Error)
	return resp
}

func TestAuth_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodPut, "/tasks/x"},
		{http.MethodDelete, "/tasks/x"},
		{http.MethodPatch, "/tasks/reorder"},
		{http.MethodGet, "/auth/me"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, "", "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = s.do(t, tt.method, tt.path, "forged.token.value", "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
		})
	}
}

func TestAuth_CookieToken(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "ann@example.com")
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/auth/register", "", `{"name":"a","email":"nope","password":"1"}`)
	resp := decodeValidation(t, w)

	fields := make([]string, len(resp.Fields))
	for i, fe := range resp.Fields {
		fields[i] = fe.Field
	}
	assert.ElementsMatch(t, []string{"email", "password"}, fields)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ann@example.com")

	w := s.do(t, http.MethodPost, "/auth/register", "", `{"name":"x","email":"ann@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "ann@example.com")

	wrongPassword := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"ann@example.com","password":"wrong-one"}`)
	unknownEmail := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"bob@example.com","password":"secret1"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Code, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())

	ok := s.do(t, http.MethodPost, "/auth/login", "", `{"email":"ann@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, ok.Code)
}

func TestCreateTask(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")

	task := s.createTask(t, token, `{"title":"  buy milk ","dueDate":"2026-05-01","priority":"High"}`)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "buy milk", task.Title)
	assert.Equal(t, "High", task.Priority)
	assert.Equal(t, "Personal", task.Category)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-05-01", *task.DueDate)
	assert.NotEmpty(t, task.Owner)
}

func TestCreateTask_Rejects(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")

	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"empty title", `{"title":"   "}`, []string{"title"}},
		{"missing title", `{"description":"x"}`, []string{"title"}},
		{"bad enum", `{"title":"t","priority":"Urgent","category":"Hobby"}`, []string{"priority", "category"}},
		{"unknown field", `{"title":"t","owner":"someone"}`, []string{"owner"}},
		{"wrong types", `{"title":5,"completed":"yes"}`, []string{"title", "completed"}},
		{"blank title and wrong type", `{"title":"  ","priority":5}`, []string{"title", "priority"}},
		{"empty title and unknown field", `{"title":"","owner":"x"}`, []string{"owner", "title"}},
		{"bad enum and wrong type", `{"title":"t","priority":"Urgent","order":"x"}`, []string{"priority", "order"}},
		{"bad date and unknown field", `{"title":"t","dueDate":"soon","id":"x"}`, []string{"id", "dueDate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := decodeValidation(t, s.do(t, http.MethodPost, "/tasks", token, tt.body))

			fields := make([]string, len(resp.Fields))
			for i, fe := range resp.Fields {
				fields[i] = fe.Field
			}
			assert.ElementsMatch(t, tt.fields, fields)
		})
	}

	w := s.do(t, http.MethodPost, "/tasks", token, `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, s.listTasks(t, token, ""))
}

func TestGetTasks_FilterAndSort(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")

	workDone := s.createTask(t, token, `{"title":"work done","category":"Work","completed":true,"priority":"Low"}`)
	workOpen := s.createTask(t, token, `{"title":"work open","category":"Work"}`)
	personalDone := s.createTask(t, token, `{"title":"personal done","completed":true,"priority":"High"}`)

	tasks := s.listTasks(t, token, "?completed=true&category=Work")
	require.Len(t, tasks, 1)
	assert.Equal(t, workDone.ID, tasks[0].ID)

	tasks = s.listTasks(t, token, "?completed=true&sortBy=priority:desc")
	require.Len(t, tasks, 2)
	assert.Equal(t, personalDone.ID, tasks[0].ID)
	assert.Equal(t, workDone.ID, tasks[1].ID)

	tasks = s.listTasks(t, token, "?completed=false")
	require.Len(t, tasks, 1)
	assert.Equal(t, workOpen.ID, tasks[0].ID)

	resp := decodeValidation(t, s.do(t, http.MethodGet, "/tasks?sortBy=owner", token, ""))
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "sortBy", resp.Fields[0].Field)
}

func TestGetTasks_EmptyIsArray(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")

	w := s.do(t, http.MethodGet, "/tasks", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUpdateTask(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")
	task := s.createTask(t, token, `{"title":"draft","dueDate":"2026-05-01"}`)

	w := s.do(t, http.MethodPut, "/tasks/"+task.ID, token, `{"completed":true,"dueDate":null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated taskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.Completed)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "draft", updated.Title)
}

func TestUpdateTask_UnknownFieldAppliesNothing(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")
	task := s.createTask(t, token, `{"title":"keep"}`)

	w := s.do(t, http.MethodPut, "/tasks/"+task.ID, token, `{"title":"changed","owner":"someone-else","id":"x"}`)
	resp := decodeValidation(t, w)
	require.Len(t, resp.Fields, 2)
	assert.Equal(t, "id", resp.Fields[0].Field)
	assert.Equal(t, "owner", resp.Fields[1].Field)

	tasks := s.listTasks(t, token, "")
	require.Len(t, tasks, 1)
	assert.Equal(t, "keep", tasks[0].Title)
}

func TestUpdateTask_ListsEveryViolation(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")
	task := s.createTask(t, token, `{"title":"keep"}`)

	w := s.do(t, http.MethodPut, "/tasks/"+task.ID, token, `{"title":" ","category":"Hobby","completed":1,"owner":"x"}`)
	resp := decodeValidation(t, w)

	fields := make([]string, len(resp.Fields))
	for i, fe := range resp.Fields {
		fields[i] = fe.Field
	}
	assert.ElementsMatch(t, []string{"owner", "completed", "title", "category"}, fields)

	tasks := s.listTasks(t, token, "")
	require.Len(t, tasks, 1)
	assert.Equal(t, "keep", tasks[0].Title)
	assert.Equal(t, "Personal", tasks[0].Category)
}

func TestTasks_BodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")
	task := s.createTask(t, token, `{"title":"keep"}`)

	huge := strings.Repeat("x", maxBodyBytes+1)

	w := s.do(t, http.MethodPost, "/tasks", token, `{"title":"`+huge+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, w.Body.String())

	w = s.do(t, http.MethodPut, "/tasks/"+task.ID, token, `{"description":"`+huge+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/tasks/reorder", token, `{"tasks":[{"id":"`+huge+`","order":1}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	tasks := s.listTasks(t, token, "")
	require.Len(t, tasks, 1)
	assert.Equal(t, "keep", tasks[0].Title)
	assert.Empty(t, tasks[0].Description)
}

func TestTasks_OwnerIsolation(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")
	task := s.createTask(t, alice, `{"title":"private"}`)

	assert.Empty(t, s.listTasks(t, bob, ""))

	w := s.do(t, http.MethodPut, "/tasks/"+task.ID, bob, `{"title":"mine"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/tasks/"+task.ID, bob, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	tasks := s.listTasks(t, alice, "")
	require.Len(t, tasks, 1)
	assert.Equal(t, "private", tasks[0].Title)
}

func TestDeleteTask_Twice(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")
	task := s.createTask(t, token, `{"title":"gone soon"}`)

	w := s.do(t, http.MethodDelete, "/tasks/"+task.ID, token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/tasks/"+task.ID, token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"task not found"}`, w.Body.String())
}

func TestReorderTasks(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "alice@example.com")
	bob := s.register(t, "bob@example.com")

	a := s.createTask(t, alice, `{"title":"a","order":1}`)
	b := s.createTask(t, alice, `{"title":"b","order":2}`)
	foreign := s.createTask(t, bob, `{"title":"bob's","order":9}`)

	body := fmt.Sprintf(`{"tasks":[{"id":%q,"order":2},{"id":%q,"order":1},{"id":%q,"order":0}]}`, a.ID, b.ID, foreign.ID)
	w := s.do(t, http.MethodPatch, "/tasks/reorder", alice, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tasks := s.listTasks(t, alice, "")
	require.Len(t, tasks, 2)
	assert.Equal(t, b.ID, tasks[0].ID)
	assert.Equal(t, a.ID, tasks[1].ID)

	bobTasks := s.listTasks(t, bob, "")
	require.Len(t, bobTasks, 1)
	assert.Equal(t, int64(9), bobTasks[0].Order)
}

func TestReorderTasks_Rejects(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")
	task := s.createTask(t, token, `{"title":"a","order":3}`)

	tests := []struct {
		name string
		body string
	}{
		{"not an array", `{"tasks":{"id":"x","order":1}}`},
		{"missing tasks", `{}`},
		{"string", `{"tasks":"all"}`},
		{"malformed", `{"tasks":[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPatch, "/tasks/reorder", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	resp := decodeValidation(t, s.do(t, http.MethodPatch, "/tasks/reorder", token,
		fmt.Sprintf(`{"tasks":[{"id":%q,"order":1},{"id":"","order":2},{"id":"y"}]}`, task.ID)))
	fields := make([]string, len(resp.Fields))
	for i, fe := range resp.Fields {
		fields[i] = fe.Field
	}
	assert.Equal(t, []string{"tasks[1].id", "tasks[2].order"}, fields)

	resp = decodeValidation(t, s.do(t, http.MethodPatch, "/tasks/reorder", token,
		`{"tasks":[{"order":1},{"id":"a"}]}`))
	fields = make([]string, len(resp.Fields))
	for i, fe := range resp.Fields {
		fields[i] = fe.Field
	}
	assert.Equal(t, []string{"tasks[0].id", "tasks[1].order"}, fields)

	tasks := s.listTasks(t, token, "")
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(3), tasks[0].Order)
}

func TestReorderTasks_FailureIsServiceUnavailable(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ann@example.com")
	a := s.createTask(t, token, `{"title":"a","order":1}`)
	b := s.createTask(t, token, `{"title":"b","order":2}`)

	_, err := s.store.DB().Exec(`
CREATE TRIGGER fail_reorder
BEFORE UPDATE OF sort_order ON tasks
WHEN NEW.sort_order = -1
BEGIN
    SELECT RAISE(ABORT, 'forced reorder failure');
END`)
	require.NoError(t, err)

	body := fmt.Sprintf(`{"tasks":[{"id":%q,"order":7},{"id":%q,"order":-1}]}`, a.ID, b.ID)
	w := s.do(t, http.MethodPatch, "/tasks/reorder", token, body)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	tasks := s.listTasks(t, token, "")
	require.Len(t, tasks, 2)
	assert.Equal(t, int64(1), tasks[0].Order)
	assert.Equal(t, int64(2), tasks[1].Order)
}
