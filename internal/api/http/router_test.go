package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/civicdesk/helpdesk/internal/api/http/handlers"
	"github.com/civicdesk/helpdesk/internal/auth"
	"github.com/civicdesk/helpdesk/internal/config"
	"github.com/civicdesk/helpdesk/internal/domain"
	"github.com/civicdesk/helpdesk/internal/events"
	"github.com/civicdesk/helpdesk/internal/repository/memory"
	"github.com/civicdesk/helpdesk/internal/service"
)

const testPassword = "secret123"

type harness struct {
	t         *testing.T
	app       *fiber.App
	store     *memory.Store
	uploadDir string
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	dispatcher := events.NewInMemoryDispatcher(logger)
	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: 4, CookieName: "token"}
	uploads := config.UploadConfig{Dir: t.TempDir(), MaxBytes: 1024 * 1024}

	assignment := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:  store.Tickets(),
		UserRepo:    store.Users(),
		HistoryRepo: store.History(),
		Dispatcher:  dispatcher,
		Picker:      func(int) int { return 0 },
	})
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:  store.Tickets(),
		CommentRepo: store.Comments(),
		HistoryRepo: store.History(),
		Assignment:  assignment,
		Dispatcher:  dispatcher,
	})
	tickets := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  store.Tickets(),
		CommentRepo: store.Comments(),
		HistoryRepo: store.History(),
		Assignment:  assignment,
		Dispatcher:  dispatcher,
	})
	revocations := auth.NewMemoryRevocationStore()
	authService := service.NewAuthService(authCfg, service.AuthDependencies{
		UserRepo:    store.Users(),
		Revocations: revocations,
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, nil)})
	RegisterMiddlewares(app, logger, nil, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService, authCfg),
		Tickets:        handlers.NewTicketsHandler(tickets, lifecycle, assignment, uploads),
		Stats:          handlers.NewStatsHandler(service.NewStatsService(store.Stats(), config.StatsConfig{}, nil)),
		Admin:          handlers.NewAdminHandler(service.NewUserService(store.Users(), 4)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), store.Users(), revocations, "token", logger),
	})
	t.Cleanup(func() { _ = dispatcher.Drain(context.Background()) })

	return &harness{t: t, app: app, store: store, uploadDir: uploads.Dir}
}

func (h *harness) seedUser(name, email string, role domain.Role, dept *domain.Category) *domain.User {
	h.t.Helper()
	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(h.t, err)
	u := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: role, Department: dept}
	require.NoError(h.t, h.store.Users().Create(context.Background(), u))
	return u
}

func (h *harness) login(email string) string {
	h.t.Helper()
	status, env := h.call(fiber.MethodPost, "/auth/login", map[string]string{"email": email, "password": testPassword}, "")
	require.Equal(h.t, fiber.StatusOK, status)
	require.True(h.t, env.Success, env.Message)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &data))
	return data.Auth.Token
}

func (h *harness) do(method, path string, body any, token string) (int, []byte, map[string]string) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	headers := map[string]string{
		fiber.HeaderContentType: resp.Header.Get(fiber.HeaderContentType),
		fiber.HeaderSetCookie:   resp.Header.Get(fiber.HeaderSetCookie),
	}
	return resp.StatusCode, payload, headers
}

func (h *harness) call(method, path string, body any, token string) (int, envelope) {
	h.t.Helper()
	status, payload, _ := h.do(method, path, body, token)
	var env envelope
	require.NoError(h.t, json.Unmarshal(payload, &env), string(payload))
	return status, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

type ticketBody struct {
	ID         string  `json:"id"`
	TicketID   string  `json:"ticketId"`
	Status     string  `json:"status"`
	Category   string  `json:"category"`
	AssignedTo *string `json:"assignedTo"`
	Image      *string `json:"image"`
	Comments   []struct {
		Text   string `json:"text"`
		System bool   `json:"system"`
	} `json:"comments"`
}

func TestAuthFlow_RegisterLoginIsAuthLogout(t *testing.T) {
	h := newHarness(t)

	status, env := h.call(fiber.MethodPost, "/auth/register", map[string]string{
		"name": "Ana", "email": "Ana@Example.com", "password": testPassword,
	}, "")
	assert.Equal(t, fiber.StatusCreated, status)
	require.True(t, env.Success)
	user := decode[map[string]any](t, env.Data)
	assert.Equal(t, "citizen", user["role"])
	assert.NotContains(t, user, "passwordHash")

	_, _, headers := h.do(fiber.MethodPost, "/auth/login", map[string]string{"email": "ana@example.com", "password": testPassword}, "")
	assert.Contains(t, headers[fiber.HeaderSetCookie], "token=")
	assert.Contains(t, headers[fiber.HeaderSetCookie], "HttpOnly")

	token := h.login("ana@example.com")
	status, env = h.call(fiber.MethodGet, "/auth/is-auth", nil, token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ana@example.com", decode[map[string]any](t, env.Data)["email"])

	status, env = h.call(fiber.MethodPost, "/auth/logout", nil, token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)

	status, env = h.call(fiber.MethodGet, "/auth/is-auth", nil, token)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestRegister_DuplicateEmailIsConflictOnOK(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Existing", "dup@example.com", domain.RoleCitizen, nil)

	status, env := h.call(fiber.MethodPost, "/auth/register", map[string]string{
		"name": "Dup", "email": "dup@example.com", "password": testPassword,
	}, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.False(t, env.Success)
	assert.Equal(t, "CONFLICT", env.Code)
}

func TestLogin_WrongPasswordIsUnauthorized(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)

	status, env := h.call(fiber.MethodPost, "/auth/login", map[string]string{"email": "c@example.com", "password": "nope"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	h := newHarness(t)

	status, env := h.call(fiber.MethodGet, "/tickets/my-submitted", nil, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.False(t, env.Success)
	assert.Equal(t, "UNAUTHORIZED", env.Code)
}

func TestCreateTicket_ValidationErrorUsesEnvelope(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)
	token := h.login("c@example.com")

	status, env := h.call(fiber.MethodPost, "/tickets/create", map[string]string{"description": "no title"}, token)
	assert.Equal(t, fiber.StatusOK, status)
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
	assert.Contains(t, env.Message, "title is required")
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	roads := domain.CategoryRoads
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)
	h.seedUser("Other", "o@example.com", domain.RoleCitizen, nil)
	h.seedUser("Worker", "w@example.com", domain.RoleEmployee, &roads)
	citizen := h.login("c@example.com")
	other := h.login("o@example.com")
	worker := h.login("w@example.com")

	status, env := h.call(fiber.MethodPost, "/tickets/create", map[string]string{
		"title": "Pothole", "description": "Deep one", "category": "roads", "location": "5th Ave",
	}, citizen)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	created := decode[ticketBody](t, env.Data)
	assert.Equal(t, "TKT000001", created.TicketID)
	assert.Equal(t, "Open", created.Status)
	assert.Equal(t, "Roads", created.Category)
	require.NotNil(t, created.AssignedTo)

	status, env = h.call(fiber.MethodGet, "/tickets/"+created.TicketID, nil, other)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Code)

	status, env = h.call(fiber.MethodPost, "/tickets/status", map[string]string{"ticketId": created.TicketID, "status": "Resolved"}, citizen)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env = h.call(fiber.MethodPost, "/tickets/status", map[string]string{"ticketId": created.TicketID, "status": "Resolved"}, worker)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, "Resolved", decode[ticketBody](t, env.Data).Status)

	status, env = h.call(fiber.MethodPost, "/tickets/reopen", map[string]string{"ticketId": created.TicketID, "reason": "still broken"}, citizen)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assert.Equal(t, "Reopened", decode[ticketBody](t, env.Data).Status)

	status, env = h.call(fiber.MethodPost, "/tickets/comment", map[string]string{"ticketId": created.ID, "text": "thanks"}, worker)
	assert.Equal(t, fiber.StatusCreated, status, env.Message)

	status, env = h.call(fiber.MethodGet, "/tickets/"+created.TicketID, nil, citizen)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	detail := decode[ticketBody](t, env.Data)
	require.Len(t, detail.Comments, 2)
	assert.True(t, detail.Comments[0].System)
	assert.Equal(t, "Reopened: still broken", detail.Comments[0].Text)

	status, env = h.call(fiber.MethodGet, "/tickets/my-assigned?status=reopened", nil, worker)
	require.Equal(t, fiber.StatusOK, status)
	page := decode[struct {
		Items []ticketBody `json:"items"`
	}](t, env.Data)
	assert.Len(t, page.Items, 1)

	status, env = h.call(fiber.MethodGet, "/tickets/my-summary", nil, citizen)
	require.Equal(t, fiber.StatusOK, status)
	summary := decode[struct {
		Total int64 `json:"total"`
	}](t, env.Data)
	assert.Equal(t, int64(1), summary.Total)
}

func TestTicketStatus_UnknownTicketIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Admin", "a@example.com", domain.RoleAdmin, nil)
	token := h.login("a@example.com")

	status, env := h.call(fiber.MethodPost, "/tickets/status", map[string]string{"ticketId": "TKT999999", "status": "Open"}, token)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestAdminRoutes_RejectNonAdmins(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)
	token := h.login("c@example.com")

	for _, path := range []string{"/tickets/all", "/tickets/summary", "/admin/users"} {
		status, env := h.call(fiber.MethodGet, path, nil, token)
		assert.Equal(t, fiber.StatusForbidden, status, path)
		assert.Equal(t, "FORBIDDEN", env.Code, path)
	}
	status, _ := h.call(fiber.MethodPost, "/tickets/assign", map[string]string{"ticketId": "TKT000001", "department": "IT"}, token)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestAdmin_CreateEmployeeAndAssign(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Admin", "a@example.com", domain.RoleAdmin, nil)
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)
	admin := h.login("a@example.com")
	citizen := h.login("c@example.com")

	status, env := h.call(fiber.MethodPost, "/tickets/create", map[string]string{
		"title": "Outage", "description": "No power", "category": "Electricity",
	}, citizen)
	require.Equal(t, fiber.StatusCreated, status)
	ticket := decode[ticketBody](t, env.Data)
	assert.Equal(t, "Pending", ticket.Status)
	assert.Nil(t, ticket.AssignedTo)

	status, env = h.call(fiber.MethodPost, "/tickets/assign", map[string]string{"ticketId": ticket.TicketID, "department": "Electricity"}, admin)
	assert.Equal(t, fiber.StatusOK, status)
	assert.False(t, env.Success)
	assert.Equal(t, "CONFLICT", env.Code)

	status, env = h.call(fiber.MethodPost, "/admin/create-user", map[string]string{
		"name": "Sparky", "email": "sparky@example.com", "password": testPassword, "role": "employee", "department": "electricity",
	}, admin)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	employee := decode[map[string]any](t, env.Data)
	assert.Equal(t, "Electricity", employee["department"])

	status, env = h.call(fiber.MethodPost, "/tickets/assign", map[string]string{"ticketId": ticket.TicketID, "department": "Electricity"}, admin)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	assigned := decode[ticketBody](t, env.Data)
	assert.Equal(t, "Open", assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, employee["id"], *assigned.AssignedTo)

	status, env = h.call(fiber.MethodGet, "/admin/users?role=employee", nil, admin)
	require.Equal(t, fiber.StatusOK, status)
	users := decode[struct {
		Items []map[string]any `json:"items"`
	}](t, env.Data)
	assert.Len(t, users.Items, 1)

	status, env = h.call(fiber.MethodGet, "/tickets/all?category=electricity&search=outage", nil, admin)
	require.Equal(t, fiber.StatusOK, status, env.Message)
	all := decode[struct {
		Items []ticketBody `json:"items"`
	}](t, env.Data)
	assert.Len(t, all.Items, 1)

	status, env = h.call(fiber.MethodGet, "/tickets/all?status=cancelled", nil, admin)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)
}

func TestExport_WritesCSV(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)
	token := h.login("c@example.com")

	status, _ := h.call(fiber.MethodPost, "/tickets/create", map[string]string{
		"title": "Graffiti, again", "description": "Wall", "category": "Sanitation",
	}, token)
	require.Equal(t, fiber.StatusCreated, status)

	status, body, headers := h.do(fiber.MethodGet, "/tickets/export", nil, token)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, headers[fiber.HeaderContentType], "text/csv")
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Ticket ID,Title"))
	assert.Contains(t, lines[1], `"Graffiti, again"`)
}

func TestCreateTicket_MultipartImageIsStored(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)
	token := h.login("c@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Broken bench"))
	require.NoError(t, mw.WriteField("description", "Split in half"))
	require.NoError(t, mw.WriteField("category", "Facilities"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="bench.PNG"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/tickets/create", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	ticket := decode[ticketBody](t, env.Data)
	require.NotNil(t, ticket.Image)
	assert.True(t, strings.HasPrefix(*ticket.Image, "/uploads/"))
	assert.True(t, strings.HasSuffix(*ticket.Image, ".png"))

	_, err = os.Stat(filepath.Join(h.uploadDir, filepath.Base(*ticket.Image)))
	assert.NoError(t, err)
}

func TestCreateTicket_RejectedTicketLeavesNoUpload(t *testing.T) {
	h := newHarness(t)
	h.seedUser("Citizen", "c@example.com", domain.RoleCitizen, nil)
	token := h.login("c@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Broken bench"))
	require.NoError(t, mw.WriteField("description", "Split in half"))
	require.NoError(t, mw.WriteField("priority", "critical"))
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="image"; filename="bench.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/tickets/create", &buf)
	req.Header.Set(fiber.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.False(t, env.Success)
	assert.Equal(t, "VALIDATION_FAILED", env.Code)

	entries, err := os.ReadDir(h.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublicEndpoints(t *testing.T) {
	h := newHarness(t)

	status, env := h.call(fiber.MethodGet, "/stats/public", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)

	status, env = h.call(fiber.MethodGet, "/stats/public/summary", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)

	status, env = h.call(fiber.MethodGet, "/meta/catalog", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	catalog := decode[map[string][]string](t, env.Data)
	assert.Len(t, catalog["categories"], 15)
	assert.Contains(t, catalog["statuses"], "In Progress")

	status, payload, _ := h.do(fiber.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(payload), `"skipped"`)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h := newHarness(t)

	status, env := h.call(fiber.MethodGet, "/nope", nil, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
