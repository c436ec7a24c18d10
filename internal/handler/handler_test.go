package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/application"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/auth"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/response"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router    *gin.Engine
	jwt       *auth.JWTManager
	provider  *provider.Provider
	owner     uuid.UUID
	providers *repository.MemoryProviderRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	today := civil.Date{Year: 2025, Month: 12, Day: 1}
	clock := func() civil.Date { return today }

	p := &provider.Provider{
		ID:                  uuid.New(),
		UserID:              uuid.New(),
		DisplayName:         "Lower East Pet Care",
		Location:            &geo.Coordinate{Lat: 40.706086, Lng: -73.996864},
		Services:            map[string]provider.ServiceOffer{"boarding": {Active: true, RateCents: 4500}},
		AcceptedPetKinds:    []string{"Dog"},
		AcceptedSizeBuckets: []string{"Small", "Medium", "Large"},
		Verified:            true,
	}
	providers := repository.NewMemoryProviderRepository(p)
	bookings := repository.NewMemoryBookingRepository()
	pets := repository.NewMemoryPetRepository()
	reviews := repository.NewMemoryReviewRepository()
	log := zap.NewNop()

	bookingSvc := application.NewBookingService(bookings, providers, pets,
		bookingDomain.NewDailyRatePricingStrategy(nil), nil, nil, clock, log)
	searchSvc := application.NewSearchService(providers, bookings, pets, application.SearchConfig{}, clock, log)
	reviewSvc := application.NewReviewService(reviews, bookings, nil, nil, log)
	petSvc := application.NewPetService(pets, log)

	jwt := auth.NewJWTManager("test-secret", time.Hour, time.Hour)
	r := gin.New()
	NewBookingHandler(bookingSvc).RegisterRoutes(&r.RouterGroup, jwt)
	NewSearchHandler(searchSvc).RegisterRoutes(&r.RouterGroup, jwt)
	NewReviewHandler(reviewSvc).RegisterRoutes(&r.RouterGroup, jwt)
	NewPetHandler(petSvc).RegisterRoutes(&r.RouterGroup, jwt)
	NewAdminHandler(bookingSvc, nil).RegisterRoutes(&r.RouterGroup, jwt)

	return &testServer{router: r, jwt: jwt, provider: p, owner: uuid.New(), providers: providers}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(userID, "user@example.com", role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
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
	s.router.ServeHTTP(w, req)

	var env response.Envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) createBooking(t *testing.T) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/bookings", s.token(t, s.owner, auth.RoleOwner), gin.H{
		"provider_id":  s.provider.ID,
		"service_kind": "boarding",
		"start_date":   "2025-12-05",
		"end_date":     "2025-12-06",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := env.Data.(map[string]interface{})
	assert.Equal(t, float64(9000), data["total_price_cents"])
	return data["id"].(string)
}

func TestBookingRoutes_Lifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.createBooking(t)
	ownerTok := s.token(t, s.owner, auth.RoleOwner)
	providerTok := s.token(t, s.provider.UserID, auth.RoleProvider)

	w, env := s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/accept", ownerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, domain.CodeUnauthorizedTransition, env.Error.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/accept", providerTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/transition", providerTok, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.CodeInvalidState, env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/cancel", ownerTok, gin.H{"reason": "vet visit"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", env.Data.(map[string]interface{})["status"])

	w, env = s.do(t, http.MethodGet, "/api/v1/bookings?as=provider", providerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)
}

func TestBookingRoutes_BadInput(t *testing.T) {
	s := newTestServer(t)
	ownerTok := s.token(t, s.owner, auth.RoleOwner)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"no token", http.MethodGet, "/api/v1/bookings", "", nil, http.StatusUnauthorized},
		{"provider cannot create", http.MethodPost, "/api/v1/bookings", s.token(t, s.provider.UserID, auth.RoleProvider), gin.H{}, http.StatusForbidden},
		{"missing provider", http.MethodPost, "/api/v1/bookings", ownerTok, gin.H{"service_kind": "boarding"}, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/api/v1/bookings/nope", ownerTok, nil, http.StatusBadRequest},
		{"unknown booking", http.MethodGet, "/api/v1/bookings/" + uuid.NewString(), ownerTok, nil, http.StatusNotFound},
		{"unknown status", http.MethodPost, "/api/v1/bookings/" + uuid.NewString() + "/transition", ownerTok, gin.H{"status": "in_progress"}, http.StatusBadRequest},
		{"bad list view", http.MethodGet, "/api/v1/bookings?as=admin", ownerTok, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestSearchRoutes(t *testing.T) {
	s := newTestServer(t)
	ownerTok := s.token(t, s.owner, auth.RoleOwner)

	w, _ := s.do(t, http.MethodPost, "/api/v1/search", "", gin.H{})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/search", ownerTok, gin.H{
		"lat": 40.785091, "lng": -73.968285, "radius_km": 10,
		"criteria": gin.H{"service_kind": "Boarding", "pet_kind": "dog"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := env.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	w, _ = s.do(t, http.MethodPost, "/api/v1/search", ownerTok, gin.H{"lat": 40.7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityRoute(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/providers/" + s.provider.ID.String() + "/availability"

	w, env := s.do(t, http.MethodGet, base+"?month_offset=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, float64(2026), data["year"])
	assert.Equal(t, float64(1), data["month"])
	assert.Len(t, data["days"], 31)

	w, _ = s.do(t, http.MethodGet, base+"?month_offset=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(t, http.MethodGet, base+"?month_offset=x", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewRoutes(t *testing.T) {
	s := newTestServer(t)
	id := s.createBooking(t)
	ownerTok := s.token(t, s.owner, auth.RoleOwner)

	w, env := s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/review", ownerTok, gin.H{"rating": 5})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, domain.CodeInvalidState, env.Error.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/review", ownerTok, gin.H{"rating": 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, _ = s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/accept", s.token(t, s.provider.UserID, auth.RoleProvider), nil)
	w, _ = s.do(t, http.MethodPost, "/api/v1/bookings/"+id+"/review", ownerTok, gin.H{"rating": 4, "comment": "Great"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do(t, http.MethodGet, "/api/v1/providers/"+s.provider.ID.String()+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)
}

func TestPetRoutes(t *testing.T) {
	s := newTestServer(t)
	ownerTok := s.token(t, s.owner, auth.RoleOwner)

	w, env := s.do(t, http.MethodPost, "/api/v1/pets", ownerTok, gin.H{"name": "Rex", "species": "dog", "weight_kg": 12.5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	petID := env.Data.(map[string]interface{})["id"].(string)

	w, env = s.do(t, http.MethodPut, "/api/v1/pets/"+petID, ownerTok, gin.H{"neutered": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, env.Data.(map[string]interface{})["neutered"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/pets/"+petID, s.token(t, uuid.New(), auth.RoleOwner), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/pets", ownerTok, gin.H{"name": "Rex"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/pets/"+petID, ownerTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	s.createBooking(t)

	w, _ := s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", s.token(t, s.owner, auth.RoleOwner), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminTok := s.token(t, uuid.New(), auth.RoleAdmin)
	w, env := s.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), env.Data.(map[string]interface{})["total_bookings"])

	w, env = s.do(t, http.MethodGet, "/api/v1/admin/bookings", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, _ = s.do(t, http.MethodPost, "/api/v1/admin/providers/"+s.provider.ID.String()+"/invalidate", adminTok, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
