package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Urdemonlord/atlasproject/internal/api/handlers"
	"github.com/Urdemonlord/atlasproject/internal/auth"
	"github.com/Urdemonlord/atlasproject/internal/config"
	"github.com/Urdemonlord/atlasproject/internal/logging"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/services"
	"github.com/Urdemonlord/atlasproject/internal/session"
)

const testSecret = "testsecret"

type mocks struct {
	users     *MockUserService
	props     *MockPropertyService
	bookings  *MockBookingService
	dashboard *MockDashboardService
}

// --- Test Setup ---

func setupTestRouter() (*gin.Engine, *mocks) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JwtSecret: testSecret, JwtTTL: time.Hour, AppName: "TestApp"}
	m := &mocks{
		users:     new(MockUserService),
		props:     new(MockPropertyService),
		bookings:  new(MockBookingService),
		dashboard: new(MockDashboardService),
	}
	handler := handlers.NewJsonApiHandler(cfg, logging.Discard(), m.users, m.props, m.bookings, m.dashboard)
	r := gin.New()
	r.POST("/v1/api", handler.HandleRequest)
	return r, m
}

func tokenFor(t *testing.T, userID string, role models.Role) string {
	token, err := auth.GenerateJWT(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func callAPI(t *testing.T, r *gin.Engine, token, method string, args ...interface{}) handlers.JsonApiResponse {
	t.Helper()
	body := map[string]interface{}{"method": method}
	if args != nil {
		body["arguments"] = args
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/api", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp handlers.JsonApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// --- Tests ---

func TestJsonApiHandler_Ping(t *testing.T) {
	router, _ := setupTestRouter()
	resp := callAPI(t, router, "", "ping")
	assert.True(t, resp.Success)
	assert.Equal(t, "pong", resp.Data)
}

func TestJsonApiHandler_UnknownMethodAndBadBody(t *testing.T) {
	router, _ := setupTestRouter()
	resp := callAPI(t, router, "", "dropTables")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Unknown method")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/api", bytes.NewReader([]byte("{")))
	router.ServeHTTP(w, req)
	var body handlers.JsonApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid JSON request format", body.Error)
}

func TestJsonApiHandler_FetchProperties(t *testing.T) {
	router, m := setupTestRouter()
	seed := []models.Property{
		{ID: "1", Title: "Kos Putri Eksklusif Tembalang", Address: models.Address{District: "Tembalang", City: "Semarang"}},
		{ID: "3", Title: "Kos Campur Murah Ngaliyan", Address: models.Address{District: "Ngaliyan", City: "Semarang"}},
	}
	m.props.On("FetchProperties", mock.Anything, mock.MatchedBy(func(f *models.SearchFilters) bool {
		return f.PropertyType == nil && f.SortBy == models.SortNone
	})).Return(seed, nil).Once()
	m.props.On("FetchProperties", mock.Anything, mock.MatchedBy(func(f *models.SearchFilters) bool {
		return f.SortBy == models.SortPriceLow && f.MaxPrice != nil && *f.MaxPrice == 1000000
	})).Return(seed, nil).Once()

	resp := callAPI(t, router, "", "fetchProperties")
	require.True(t, resp.Success, resp.Error)
	assert.Len(t, resp.Data, 2)

	resp = callAPI(t, router, "", "fetchProperties", map[string]interface{}{
		"sort_by": "price_low", "max_price": 1000000, "q": "ngaliyan",
	})
	require.True(t, resp.Success, resp.Error)
	data := resp.Data.([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "3", data[0].(map[string]interface{})["id"])

	m.props.On("FetchProperties", mock.Anything, mock.MatchedBy(func(f *models.SearchFilters) bool {
		return f.Location != nil && *f.Location == "tembalang"
	})).Return(seed, nil).Once()
	resp = callAPI(t, router, "", "fetchProperties", map[string]interface{}{"location": "tembalang"})
	require.True(t, resp.Success, resp.Error)
	data = resp.Data.([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "1", data[0].(map[string]interface{})["id"])
	m.props.AssertExpectations(t)
}

func TestJsonApiHandler_FetchProperties_ErrorsAreClassified(t *testing.T) {
	router, m := setupTestRouter()
	m.props.On("FetchProperties", mock.Anything, mock.Anything).Return(nil, models.Validation("min_price 5 is greater than max_price 1")).Once()
	m.props.On("FetchProperties", mock.Anything, mock.Anything).Return(nil, models.Transient("properties is unavailable, try again later")).Once()

	resp := callAPI(t, router, "", "fetchProperties")
	assert.False(t, resp.Success)
	assert.Equal(t, handlers.CodeValidation, resp.Code)
	assert.Equal(t, "min_price 5 is greater than max_price 1", resp.Error)

	resp = callAPI(t, router, "", "fetchProperties")
	assert.Equal(t, handlers.CodeUnavailable, resp.Code)
	assert.NotContains(t, resp.Error, "properties")
}

func TestJsonApiHandler_FetchProperty_NotFound(t *testing.T) {
	router, m := setupTestRouter()
	m.props.On("FetchProperty", mock.Anything, "42").Return(nil, models.NotFound("property 42 not found"))

	resp := callAPI(t, router, "", "fetchProperty", "42")
	assert.False(t, resp.Success)
	assert.Equal(t, handlers.CodeNotFound, resp.Code)
}

func TestJsonApiHandler_Login(t *testing.T) {
	router, m := setupTestRouter()
	user := &models.User{Base: models.Base{ID: "1"}, Email: "john@example.com", Role: models.RoleTenant}
	m.users.On("Login", mock.Anything, "john@example.com", "password123").
		Return(&services.AuthResult{User: user, Token: "jwt"}, nil)
	m.users.On("Login", mock.Anything, "john@example.com", "wrong").
		Return(nil, models.Unauthenticated("invalid email or password"))

	resp := callAPI(t, router, "", "login", handlers.LoginArgs{Email: "john@example.com", Password: "password123"})
	require.True(t, resp.Success)
	assert.Equal(t, "jwt", resp.Data.(map[string]interface{})["token"])

	resp = callAPI(t, router, "", "login", handlers.LoginArgs{Email: "john@example.com", Password: "wrong"})
	assert.False(t, resp.Success)
	assert.Equal(t, handlers.CodeUnauthenticated, resp.Code)

	resp = callAPI(t, router, "", "login")
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Missing 'arguments'")
}

func TestJsonApiHandler_Register(t *testing.T) {
	router, m := setupTestRouter()
	input := services.RegisterInput{Name: "Siti", Email: "siti@example.com", Password: "rahasia", Role: models.RoleTenant}
	m.users.On("Register", mock.Anything, input).Return(&services.AuthResult{Token: "jwt"}, nil)

	resp := callAPI(t, router, "", "register", input)
	require.True(t, resp.Success, resp.Error)
	m.users.AssertExpectations(t)
}

func TestJsonApiHandler_AuthRequired(t *testing.T) {
	router, m := setupTestRouter()
	for _, method := range []string{"fetchBookings", "createBooking", "updateBookingStatus", "getProfile", "createProperty"} {
		resp := callAPI(t, router, "", method)
		assert.False(t, resp.Success, method)
		assert.Equal(t, handlers.CodeUnauthenticated, resp.Code, method)
	}

	forged, err := auth.GenerateJWT("1", models.RoleTenant, "not-the-secret", time.Hour)
	require.NoError(t, err)
	resp := callAPI(t, router, forged, "fetchBookings")
	assert.Equal(t, handlers.CodeUnauthenticated, resp.Code)
	m.bookings.AssertNotCalled(t, "FetchBookingsForSession", mock.Anything, mock.Anything)
}

func TestJsonApiHandler_OwnerMethodsNeedOwnerRole(t *testing.T) {
	router, m := setupTestRouter()
	m.dashboard.On("OwnerStats", mock.Anything, "101").Return(&models.OwnerStats{TotalProperties: 1}, nil)
	m.dashboard.On("OwnerStats", mock.Anything, "900").Return(&models.OwnerStats{}, nil)

	resp := callAPI(t, router, tokenFor(t, "1", models.RoleTenant), "ownerStats")
	assert.Equal(t, handlers.CodeForbidden, resp.Code)

	resp = callAPI(t, router, tokenFor(t, "101", models.RoleOwner), "ownerStats")
	require.True(t, resp.Success)
	assert.Equal(t, float64(1), resp.Data.(map[string]interface{})["total_properties"])

	resp = callAPI(t, router, tokenFor(t, "900", models.RoleAdmin), "ownerStats")
	assert.True(t, resp.Success)
}

func TestJsonApiHandler_FetchBookings(t *testing.T) {
	router, m := setupTestRouter()
	m.bookings.On("FetchBookingsForSession", mock.Anything, "1").Return([]models.Booking{{ID: "2"}, {ID: "1"}}, nil).Once()
	m.bookings.On("FetchBookingsForSession", mock.Anything, "1").Return(nil, session.ErrStale).Once()

	resp := callAPI(t, router, tokenFor(t, "1", models.RoleTenant), "fetchBookings")
	require.True(t, resp.Success)
	assert.Len(t, resp.Data, 2)

	resp = callAPI(t, router, tokenFor(t, "1", models.RoleTenant), "fetchBookings")
	assert.Equal(t, handlers.CodeStale, resp.Code)
}

func TestJsonApiHandler_CreateBooking(t *testing.T) {
	router, m := setupTestRouter()
	want := models.BookingRequest{
		RoomID:      "4",
		StartDate:   models.NewDate(2024, time.March, 1),
		EndDate:     models.NewDate(2024, time.September, 1),
		MonthlyRent: 950000,
		Deposit:     950000,
	}
	m.bookings.On("CreateBooking", mock.Anything, "1", want).
		Return(&models.Booking{ID: "b1", Status: models.BookingStatusPending}, nil)

	resp := callAPI(t, router, tokenFor(t, "1", models.RoleTenant), "createBooking", map[string]interface{}{
		"room_id": "4", "start_date": "2024-03-01", "end_date": "2024-09-01",
		"monthly_rent": 950000, "deposit": 950000,
	})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "pending", resp.Data.(map[string]interface{})["status"])

	resp = callAPI(t, router, tokenFor(t, "1", models.RoleTenant), "createBooking", map[string]interface{}{
		"room_id": "4", "start_date": "01/03/2024",
	})
	assert.False(t, resp.Success)
}

func TestJsonApiHandler_UpdateBookingStatus(t *testing.T) {
	router, m := setupTestRouter()
	owner := models.Actor{UserID: "102", Role: models.RoleOwner}
	m.bookings.On("UpdateBookingStatus", mock.Anything, owner, "2", models.BookingStatusConfirmed).
		Return(&models.Booking{ID: "2", Status: models.BookingStatusConfirmed}, nil)
	m.bookings.On("UpdateBookingStatus", mock.Anything, owner, "1", models.BookingStatusConfirmed).
		Return(nil, models.InvalidTransition("booking 1 cannot move from confirmed to confirmed"))

	token := tokenFor(t, "102", models.RoleOwner)
	resp := callAPI(t, router, token, "updateBookingStatus", handlers.UpdateBookingStatusArgs{BookingID: "2", Status: models.BookingStatusConfirmed})
	require.True(t, resp.Success)

	resp = callAPI(t, router, token, "updateBookingStatus", handlers.UpdateBookingStatusArgs{BookingID: "1", Status: models.BookingStatusConfirmed})
	assert.Equal(t, handlers.CodeValidation, resp.Code)

	resp = callAPI(t, router, token, "updateBookingStatus", handlers.UpdateBookingStatusArgs{BookingID: "1"})
	assert.Contains(t, resp.Error, "Missing required arguments")
}

func TestJsonApiHandler_ImageUpload(t *testing.T) {
	router, m := setupTestRouter()
	owner := models.Actor{UserID: "101", Role: models.RoleOwner}
	m.props.On("RequestImageUpload", mock.Anything, owner, "1", "kamar.jpg", "image/jpeg").
		Return(&services.ImageUpload{URL: "https://s3/put", Key: "uploads/101/1/x_kamar.jpg"}, nil)
	m.props.On("ConfirmImageUpload", mock.Anything, owner, "1", "uploads/101/1/x_kamar.jpg").Return(nil)

	token := tokenFor(t, "101", models.RoleOwner)
	resp := callAPI(t, router, token, "getImageUploadURL", handlers.GetImageUploadURLArgs{PropertyID: "1", Filename: "kamar.jpg", ContentType: "image/jpeg"})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "https://s3/put", resp.Data.(map[string]interface{})["upload_url"])

	resp = callAPI(t, router, token, "confirmImageUpload", handlers.ConfirmImageUploadArgs{PropertyID: "1", Key: "uploads/101/1/x_kamar.jpg"})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "processing", resp.Data)
}

func TestJsonApiHandler_UnexpectedErrorIsHidden(t *testing.T) {
	router, m := setupTestRouter()
	m.users.On("FindByID", mock.Anything, "1").Return(nil, errors.New("mongo: secret connection string leaked"))

	resp := callAPI(t, router, tokenFor(t, "1", models.RoleTenant), "getProfile")
	assert.Equal(t, handlers.CodeInternal, resp.Code)
	assert.Equal(t, "Internal error", resp.Error)
}
