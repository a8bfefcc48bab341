package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"medical-messenger/config"
	"medical-messenger/internal/delivery/http/handler"
	"medical-messenger/internal/delivery/http/middleware"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/repository"
	"medical-messenger/internal/service"
	"medical-messenger/internal/testutil"
	"medical-messenger/internal/usecase"
	"medical-messenger/pkg/jwt"
	"medical-messenger/pkg/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testAPI struct {
	t       *testing.T
	db      *gorm.DB
	handler http.Handler
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind   string            `json:"kind"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
	Meta *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		Total      int64 `json:"total"`
		TotalPages int   `json:"totalPages"`
		HasNext    bool  `json:"hasNext"`
		HasPrev    bool  `json:"hasPrev"`
	} `json:"meta"`
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testutil.NewTestDB(t)
	log := testutil.NewLogger()
	v := validator.NewValidator()

	userRepo := repository.NewUserRepository()
	doctorRepo := repository.NewDoctorProfileRepository()
	subscriptionRepo := repository.NewSubscriptionRepository()
	messageRepo := repository.NewMessageRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "router-test-secret-with-32-characters",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	accessGate := service.NewAccessGate(jwtService, testutil.NewTokenStore(), log)
	auditService := service.NewAuditService(log, auditLogRepo)

	authUsecase := usecase.NewAuthUsecase(db, log, userRepo, accessGate, auditService)
	directoryUsecase := usecase.NewDoctorDirectoryUsecase(db, log, doctorRepo, testutil.NewDirectoryCache(), config.DirectoryConfig{
		DefaultLimit:  10,
		MaxLimit:      100,
		StatsCacheTTL: time.Minute,
	})
	subscriptionUsecase := usecase.NewSubscriptionUsecase(db, log, userRepo, subscriptionRepo, auditService, config.SubscriptionConfig{
		RequestTTL: 24 * time.Hour,
	})
	messageUsecase := usecase.NewMessageUsecase(db, log, subscriptionRepo, messageRepo, testutil.NewBroadcaster())
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	router := NewRouter(
		handler.NewHealthHandler(time.Now()),
		handler.NewAuthHandler(authUsecase, v),
		handler.NewDoctorHandler(directoryUsecase, v),
		handler.NewSubscriptionHandler(subscriptionUsecase, v),
		handler.NewMessageHandler(messageUsecase, v, log),
		handler.NewAuditLogHandler(auditLogUsecase, v),
		middleware.NewAuthMiddleware(accessGate, log),
		middleware.NewCORSMiddleware([]string{"http://localhost:3000"}),
		middleware.NewLoggingMiddleware(log),
	)

	return &testAPI{t: t, db: db, handler: router.Setup()}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": testutil.Password,
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	decode(a.t, rec, &tokens)
	return tokens.AccessToken
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) *envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return &env
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["uptime"])
}

func TestSubscriptionRequiresSession(t *testing.T) {
	api := newTestAPI(t)
	doctor := testutil.CreateDoctor(t, api.db)

	rec := api.do(http.MethodPost, "/api/v1/subscriptions", "", map[string]interface{}{"doctorId": doctor.UserID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/subscriptions", "not-a-token", map[string]interface{}{"doctorId": doctor.UserID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Doctors cannot request subscriptions.
	token := api.login(doctor.User.Email)
	rec = api.do(http.MethodPost, "/api/v1/subscriptions", token, map[string]interface{}{"doctorId": doctor.UserID})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSubscriptionLifecycle(t *testing.T) {
	api := newTestAPI(t)
	patient := testutil.CreatePatient(t, api.db)
	doctor := testutil.CreateDoctor(t, api.db)
	patientToken := api.login(patient.Email)
	doctorToken := api.login(doctor.User.Email)

	rec := api.do(http.MethodPost, "/api/v1/subscriptions", patientToken, map[string]interface{}{
		"doctorId":       doctor.UserID,
		"requestMessage": "I would like a second opinion",
		"consentGiven":   true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sub struct {
		ID              string  `json:"id"`
		Status          string  `json:"status"`
		RequestMessage  *string `json:"request_message"`
		ResponseMessage *string `json:"response_message"`
		ConsentGiven    bool    `json:"consent_given"`
	}
	decode(t, rec, &sub)
	assert.Equal(t, string(entity.SubscriptionStatusRequested), sub.Status)
	require.NotNil(t, sub.RequestMessage)
	assert.Equal(t, "I would like a second opinion", *sub.RequestMessage)
	assert.True(t, sub.ConsentGiven)

	rec = api.do(http.MethodPatch, "/api/v1/subscriptions/"+sub.ID, patientToken, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(http.MethodPatch, "/api/v1/subscriptions/"+sub.ID, doctorToken, map[string]string{
		"status":          "approved",
		"responseMessage": "Happy to help",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &sub)
	assert.Equal(t, string(entity.SubscriptionStatusApproved), sub.Status)
	require.NotNil(t, sub.ResponseMessage)
	assert.Equal(t, "Happy to help", *sub.ResponseMessage)

	rec = api.do(http.MethodPost, "/api/v1/subscriptions", patientToken, map[string]interface{}{"doctorId": doctor.UserID})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decode(t, rec, nil).Error.Kind)

	rec = api.do(http.MethodPatch, "/api/v1/subscriptions/"+sub.ID, doctorToken, map[string]string{"status": "denied"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/subscriptions/"+sub.ID+"/messages", patientToken, map[string]string{"body": "Hello"})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/v1/subscriptions/"+sub.ID+"/messages", doctorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var messages struct {
		Total int `json:"total"`
	}
	decode(t, rec, &messages)
	assert.Equal(t, 1, messages.Total)

	rec = api.do(http.MethodGet, "/api/v1/subscriptions/mine", doctorToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var mine struct {
		Total int `json:"total"`
	}
	decode(t, rec, &mine)
	assert.Equal(t, 1, mine.Total)
}

func TestSubscriptionValidation(t *testing.T) {
	api := newTestAPI(t)
	patient := testutil.CreatePatient(t, api.db)
	token := api.login(patient.Email)

	rec := api.do(http.MethodPost, "/api/v1/subscriptions", token, map[string]string{"doctorId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode(t, rec, nil)
	assert.Equal(t, "validation_error", env.Error.Kind)
	assert.Contains(t, env.Error.Fields, "doctorId")

	rec = api.do(http.MethodGet, "/api/v1/subscriptions/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/subscriptions/mine?status=pending", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDoctorIsStable(t *testing.T) {
	api := newTestAPI(t)
	doctor := testutil.CreateDoctor(t, api.db, testutil.WithSpecialties("cardiology", "internal_medicine"))

	first := api.do(http.MethodGet, "/api/v1/doctors/"+doctor.UserID.String(), "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	second := api.do(http.MethodGet, "/api/v1/doctors/"+doctor.UserID.String(), "", nil)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	rec := api.do(http.MethodGet, "/api/v1/doctors/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchDoctorsByMinRating(t *testing.T) {
	api := newTestAPI(t)
	low := testutil.CreateDoctor(t, api.db, testutil.WithRating(3.2, 5))
	mid := testutil.CreateDoctor(t, api.db, testutil.WithRating(4.1, 5))
	high := testutil.CreateDoctor(t, api.db, testutil.WithRating(4.8, 5))

	rec := api.do(http.MethodGet, "/api/v1/doctors?minRating=4", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doctors []struct {
		ID     string  `json:"id"`
		Rating float64 `json:"rating"`
	}
	env := decode(t, rec, &doctors)
	require.Len(t, doctors, 2)
	assert.Equal(t, high.UserID.String(), doctors[0].ID)
	assert.Equal(t, mid.UserID.String(), doctors[1].ID)
	for _, d := range doctors {
		assert.NotEqual(t, low.UserID.String(), d.ID)
	}
	assert.Equal(t, int64(2), env.Meta.Total)

	rec = api.do(http.MethodGet, "/api/v1/doctors?minRating=high", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec, nil).Error.Fields, "minRating")

	rec = api.do(http.MethodGet, "/api/v1/doctors?minRating=7", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchDoctorsPaginationMeta(t *testing.T) {
	api := newTestAPI(t)
	for i := 0; i < 5; i++ {
		testutil.CreateDoctor(t, api.db)
	}

	rec := api.do(http.MethodGet, "/api/v1/doctors?page=2&limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doctors []json.RawMessage
	env := decode(t, rec, &doctors)
	assert.Len(t, doctors, 2)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Page)
	assert.Equal(t, 2, env.Meta.Limit)
	assert.Equal(t, int64(5), env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)
	assert.True(t, env.Meta.HasNext)
	assert.True(t, env.Meta.HasPrev)
	assert.Contains(t, rec.Body.String(), `"hasNext":true`)
	assert.Contains(t, rec.Body.String(), `"hasPrev":true`)
}

func TestDoctorStaticRoutesBeforeID(t *testing.T) {
	api := newTestAPI(t)
	testutil.CreateDoctor(t, api.db, testutil.WithRating(4.5, 20))

	rec := api.do(http.MethodGet, "/api/v1/doctors/stats", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/doctors/top-rated?limit=5", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doctors []json.RawMessage
	decode(t, rec, &doctors)
	assert.Len(t, doctors, 1)
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t)
	admin := testutil.CreateAdmin(t, api.db)
	patient := testutil.CreatePatient(t, api.db)
	testutil.CreateDoctor(t, api.db, testutil.Inactive())

	rec := api.do(http.MethodGet, "/api/v1/admin/doctors", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/admin/doctors", api.login(patient.Email), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := api.login(admin.Email)
	rec = api.do(http.MethodGet, "/api/v1/admin/doctors?isActive=false", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doctors []json.RawMessage
	decode(t, rec, &doctors)
	assert.Len(t, doctors, 1)

	rec = api.do(http.MethodGet, "/api/v1/admin/audit-logs", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []struct {
		ID     int64  `json:"id"`
		Action string `json:"action"`
	}
	decode(t, rec, &logs)
	require.NotEmpty(t, logs)

	rec = api.do(http.MethodGet, "/api/v1/admin/audit-logs/999999", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":      "new.patient@example.com",
		"password":   "long-enough-password",
		"first_name": "New",
		"last_name":  "Patient",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "new.patient@example.com",
		"password": "long-enough-password",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, rec, &tokens)

	rec = api.do(http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, rec, &me)
	assert.Equal(t, "new.patient@example.com", me.Email)
	assert.Equal(t, entity.RolePatient, me.Role)

	rec = api.do(http.MethodPost, "/api/v1/auth/logout", tokens.AccessToken, map[string]string{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/auth/me", tokens.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/subscriptions/abc", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestMessageStream(t *testing.T) {
	api := newTestAPI(t)
	patient := testutil.CreatePatient(t, api.db)
	doctor := testutil.CreateDoctor(t, api.db)
	sub := testutil.CreateSubscription(t, api.db, patient.ID, doctor.UserID, entity.SubscriptionStatusApproved)
	patientToken := api.login(patient.Email)
	doctorToken := api.login(doctor.User.Email)

	server := httptest.NewServer(api.handler)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/subscriptions/"+sub.ID.String()+"/messages/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+doctorToken)

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	rec := api.do(http.MethodPost, "/api/v1/subscriptions/"+sub.ID.String()+"/messages", patientToken, map[string]string{"body": "are you there?"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	reader := bufio.NewReader(resp.Body)
	var data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}

	var msg struct {
		Body       string `json:"body"`
		FromUserID string `json:"from_user_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &msg))
	assert.Equal(t, "are you there?", msg.Body)
	assert.Equal(t, patient.ID.String(), msg.FromUserID)
}

func TestMessageStreamRejectsOutsiders(t *testing.T) {
	api := newTestAPI(t)
	patient := testutil.CreatePatient(t, api.db)
	doctor := testutil.CreateDoctor(t, api.db)
	stranger := testutil.CreatePatient(t, api.db)
	sub := testutil.CreateSubscription(t, api.db, patient.ID, doctor.UserID, entity.SubscriptionStatusApproved)

	rec := api.do(http.MethodGet, "/api/v1/subscriptions/"+sub.ID.String()+"/messages/stream", api.login(stranger.Email), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
