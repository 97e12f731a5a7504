package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Urdemonlord/atlasproject/internal/api/middleware"
	"github.com/Urdemonlord/atlasproject/internal/auth"
	"github.com/Urdemonlord/atlasproject/internal/config"
	"github.com/Urdemonlord/atlasproject/internal/models"
	"github.com/Urdemonlord/atlasproject/internal/search"
	"github.com/Urdemonlord/atlasproject/internal/services"
	"github.com/Urdemonlord/atlasproject/internal/session"
	"github.com/Urdemonlord/atlasproject/internal/utils"
)

// Context key type for the request session
type sessionContextKey string

const sessionKey sessionContextKey = "session"

// getSessionFromContext returns the session checkAuthForMethod attached.
func getSessionFromContext(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(sessionKey).(*session.Session); ok {
		return s
	}
	return session.New()
}

func actorOf(s *session.Session) models.Actor {
	return models.Actor{UserID: s.UserID(), Role: s.Role()}
}

// JsonApiRequest defines the expected structure for JSON API requests.
type JsonApiRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// JsonApiResponse defines the structure for JSON API responses.
type JsonApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// apiMethodFunc defines the signature for handler methods.
type apiMethodFunc func(c *gin.Context, args json.RawMessage) (interface{}, *ApiError)

// JsonApiHandler holds dependencies for handling JSON API requests.
type JsonApiHandler struct {
	cfg              *config.Config
	log              logrus.FieldLogger
	userService      services.IUserService
	propertyService  services.IPropertyService
	bookingService   services.IBookingService
	dashboardService services.IDashboardService
	methods          map[string]apiMethodFunc
}

// NewJsonApiHandler creates a new handler for the JSON API endpoint.
func NewJsonApiHandler(
	cfg *config.Config,
	log logrus.FieldLogger,
	userService services.IUserService,
	propertyService services.IPropertyService,
	bookingService services.IBookingService,
	dashboardService services.IDashboardService,
) *JsonApiHandler {
	h := &JsonApiHandler{
		cfg:              cfg,
		log:              log.WithField("component", "json_api"),
		userService:      userService,
		propertyService:  propertyService,
		bookingService:   bookingService,
		dashboardService: dashboardService,
	}
	h.methods = map[string]apiMethodFunc{
		"ping":                       h.ping,
		"login":                      h.login,
		"register":                   h.register,
		"getProfile":                 h.getProfile,
		"updateProfile":              h.updateProfile,
		"fetchProperties":            h.fetchProperties,
		"fetchProperty":              h.fetchProperty,
		"fetchBookings":              h.fetchBookings,
		"createBooking":              h.createBooking,
		"updateBookingStatus":        h.updateBookingStatus,
		"ownerStats":                 h.ownerStats,
		"ownerProperties":            h.ownerProperties,
		"ownerBookings":              h.ownerBookings,
		"createProperty":             h.createProperty,
		"updatePropertyStatus":       h.updatePropertyStatus,
		"updatePropertyPricing":      h.updatePropertyPricing,
		"updatePropertyAvailability": h.updatePropertyAvailability,
		"getImageUploadURL":          h.getImageUploadURL,
		"confirmImageUpload":         h.confirmImageUpload,
	}
	return h
}

// HandleRequest is the main entry point for POST /v1/api
func (h *JsonApiHandler) HandleRequest(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.sendErrorResponse(c, NewApiError("Failed to read request body"))
		return
	}

	var req JsonApiRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		h.sendErrorResponse(c, NewApiError("Invalid JSON request format"))
		return
	}

	handlerFunc, ok := h.methods[req.Method]
	if !ok {
		h.sendErrorResponse(c, NewApiError(fmt.Sprintf("Unknown method: %s", req.Method)))
		return
	}

	if authErr := h.checkAuthForMethod(c, req.Method); authErr != nil {
		h.sendErrorResponse(c, authErr)
		return
	}

	result, apiErr := handlerFunc(c, req.Arguments)
	if apiErr != nil {
		h.sendErrorResponse(c, apiErr)
		return
	}
	h.sendSuccessResponse(c, result)
}

// checkAuthForMethod builds the request session from the bearer token and
// stores it in c.Request.Context(). A bad token fails methods that need
// auth; public methods then proceed anonymously.
func (h *JsonApiHandler) checkAuthForMethod(c *gin.Context, method string) *ApiError {
	sess := session.New()
	needsAuth := methodRequiresAuth(method)

	tokenString, headerErr := middleware.BearerToken(c.GetHeader("Authorization"))
	switch {
	case headerErr == nil:
		claims, err := auth.ValidateJWT(tokenString, h.cfg.JwtSecret)
		if err != nil {
			if needsAuth {
				return &ApiError{Message: fmt.Sprintf("Invalid or expired token: %v", err), Code: CodeUnauthenticated}
			}
			h.log.WithField("method", method).WithError(err).Debug("ignoring invalid optional token")
			break
		}
		sess.Login(&models.User{Base: models.Base{ID: claims.UserID}, Role: claims.Role}, tokenString)
	case needsAuth:
		return &ApiError{Message: headerErr.Error(), Code: CodeUnauthenticated}
	}

	if roles, ok := methodRoles[method]; ok && sess.Role() != models.RoleAdmin {
		allowed := false
		for _, r := range roles {
			allowed = allowed || sess.Role() == r
		}
		if !allowed {
			return &ApiError{Message: fmt.Sprintf("%s is not available to role %q", method, sess.Role()), Code: CodeForbidden}
		}
	}

	ctx := context.WithValue(c.Request.Context(), sessionKey, sess)
	c.Request = c.Request.WithContext(ctx)
	return nil
}

// methodRequiresAuth checks if a given API method requires authentication.
func methodRequiresAuth(method string) bool {
	switch method {
	case "getProfile",
		"updateProfile",
		"fetchBookings",
		"createBooking",
		"updateBookingStatus",
		"ownerStats",
		"ownerProperties",
		"ownerBookings",
		"createProperty",
		"updatePropertyStatus",
		"updatePropertyPricing",
		"updatePropertyAvailability",
		"getImageUploadURL",
		"confirmImageUpload":
		return true
	}
	return false
}

// methodRoles restricts methods to roles. Admins may call everything.
var methodRoles = map[string][]models.Role{
	"ownerStats":      {models.RoleOwner},
	"ownerProperties": {models.RoleOwner},
	"ownerBookings":   {models.RoleOwner},
	"createProperty":  {models.RoleOwner},
}

// --- Private helper methods ---

func (h *JsonApiHandler) sendSuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, JsonApiResponse{Success: true, Data: data})
}

func (h *JsonApiHandler) sendErrorResponse(c *gin.Context, apiErr *ApiError) {
	c.JSON(http.StatusOK, JsonApiResponse{Success: false, Error: apiErr.Message, Code: apiErr.Code})
}

type ApiError struct {
	Message string
	Code    string
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewApiError(message string) *ApiError {
	return &ApiError{Message: message, Code: CodeValidation}
}

// fromServiceError turns a service error into an ApiError, logging the
// ones that are not the caller's fault.
func (h *JsonApiHandler) fromServiceError(err error) *ApiError {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).Error("json api call failed")
	}
	return &ApiError{Message: msg, Code: code}
}

func (h *JsonApiHandler) parseRequiredSingleArgFromArray(rawArgPayload json.RawMessage, targetVarPtr interface{}) *ApiError {
	var argArray []json.RawMessage
	if rawArgPayload == nil {
		return NewApiError("Missing 'arguments' field; expected a JSON array with one argument.")
	}
	if err := json.Unmarshal(rawArgPayload, &argArray); err != nil {
		return NewApiError("Invalid 'arguments': expected a JSON array.")
	}
	if len(argArray) == 0 {
		return NewApiError("Invalid 'arguments': array is empty, but one argument is expected.")
	}
	if err := json.Unmarshal(argArray[0], targetVarPtr); err != nil {
		return NewApiError("Invalid format for argument: the first element in 'arguments' array has unexpected structure.")
	}
	return nil
}

// parseOptionalSingleArg is parseRequiredSingleArgFromArray for methods
// whose only argument may be left out.
func (h *JsonApiHandler) parseOptionalSingleArg(rawArgPayload json.RawMessage, targetVarPtr interface{}) (bool, *ApiError) {
	var argArray []json.RawMessage
	if rawArgPayload == nil || string(rawArgPayload) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(rawArgPayload, &argArray); err != nil {
		return false, NewApiError("Invalid 'arguments': expected a JSON array.")
	}
	if len(argArray) == 0 || string(argArray[0]) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(argArray[0], targetVarPtr); err != nil {
		return false, NewApiError("Invalid format for argument: the first element in 'arguments' array has unexpected structure.")
	}
	return true, nil
}

// --- API Method Implementations ---

func (h *JsonApiHandler) ping(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	return "pong", nil
}

type LoginArgs struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *JsonApiHandler) login(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs LoginArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	res, err := h.userService.Login(c.Request.Context(), reqArgs.Email, reqArgs.Password)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return res, nil
}

func (h *JsonApiHandler) register(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var input services.RegisterInput
	if apiErr := h.parseRequiredSingleArgFromArray(args, &input); apiErr != nil {
		return nil, apiErr
	}
	res, err := h.userService.Register(c.Request.Context(), input)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return res, nil
}

func (h *JsonApiHandler) getProfile(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	sess := getSessionFromContext(c.Request.Context())
	user, err := h.userService.FindByID(c.Request.Context(), sess.UserID())
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return user, nil
}

func (h *JsonApiHandler) updateProfile(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var patch models.ProfilePatch
	if apiErr := h.parseRequiredSingleArgFromArray(args, &patch); apiErr != nil {
		return nil, apiErr
	}
	sess := getSessionFromContext(c.Request.Context())
	user, err := h.userService.UpdateProfile(c.Request.Context(), sess.UserID(), patch)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return user, nil
}

// FetchPropertiesArgs are the search filters plus an optional free-text query.
type FetchPropertiesArgs struct {
	models.SearchFilters
	Query string `json:"q,omitempty"`
}

func (h *JsonApiHandler) fetchProperties(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs FetchPropertiesArgs
	if _, apiErr := h.parseOptionalSingleArg(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	props, err := h.propertyService.FetchProperties(c.Request.Context(), &reqArgs.SearchFilters)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return search.Narrow(props, &reqArgs.SearchFilters, reqArgs.Query), nil
}

func (h *JsonApiHandler) fetchProperty(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var id string
	if apiErr := h.parseRequiredSingleArgFromArray(args, &id); apiErr != nil {
		return nil, apiErr
	}
	p, err := h.propertyService.FetchProperty(c.Request.Context(), utils.CanonicalID(id))
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return p, nil
}

func (h *JsonApiHandler) fetchBookings(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	sess := getSessionFromContext(c.Request.Context())
	list, err := h.bookingService.FetchBookingsForSession(c.Request.Context(), sess)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return list, nil
}

func (h *JsonApiHandler) createBooking(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var req models.BookingRequest
	if apiErr := h.parseRequiredSingleArgFromArray(args, &req); apiErr != nil {
		return nil, apiErr
	}
	sess := getSessionFromContext(c.Request.Context())
	b, err := h.bookingService.CreateBooking(c.Request.Context(), sess.UserID(), req)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return b, nil
}

type UpdateBookingStatusArgs struct {
	BookingID string               `json:"booking_id"`
	Status    models.BookingStatus `json:"status"`
}

func (h *JsonApiHandler) updateBookingStatus(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs UpdateBookingStatusArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	if reqArgs.BookingID == "" || reqArgs.Status == "" {
		return nil, NewApiError("Missing required arguments (booking_id, status)")
	}
	sess := getSessionFromContext(c.Request.Context())
	b, err := h.bookingService.UpdateBookingStatus(c.Request.Context(), actorOf(sess), utils.CanonicalID(reqArgs.BookingID), reqArgs.Status)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return b, nil
}

func (h *JsonApiHandler) ownerStats(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	sess := getSessionFromContext(c.Request.Context())
	stats, err := h.dashboardService.OwnerStats(c.Request.Context(), sess.UserID())
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return stats, nil
}

func (h *JsonApiHandler) ownerProperties(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	sess := getSessionFromContext(c.Request.Context())
	props, err := h.propertyService.ListOwnerProperties(c.Request.Context(), sess.UserID())
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return props, nil
}

func (h *JsonApiHandler) ownerBookings(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	sess := getSessionFromContext(c.Request.Context())
	list, err := h.bookingService.ListOwnerBookings(c.Request.Context(), sess.UserID())
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return list, nil
}

func (h *JsonApiHandler) createProperty(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var input models.PropertyInput
	if apiErr := h.parseRequiredSingleArgFromArray(args, &input); apiErr != nil {
		return nil, apiErr
	}
	sess := getSessionFromContext(c.Request.Context())
	p, err := h.propertyService.CreateProperty(c.Request.Context(), actorOf(sess), input)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return p, nil
}

type UpdatePropertyStatusArgs struct {
	PropertyID string                `json:"property_id"`
	Status     models.PropertyStatus `json:"status"`
}

func (h *JsonApiHandler) updatePropertyStatus(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs UpdatePropertyStatusArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	sess := getSessionFromContext(c.Request.Context())
	p, err := h.propertyService.UpdateStatus(c.Request.Context(), actorOf(sess), reqArgs.PropertyID, reqArgs.Status)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return p, nil
}

type UpdatePropertyPricingArgs struct {
	PropertyID string         `json:"property_id"`
	Pricing    models.Pricing `json:"pricing"`
}

func (h *JsonApiHandler) updatePropertyPricing(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs UpdatePropertyPricingArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	sess := getSessionFromContext(c.Request.Context())
	p, err := h.propertyService.UpdatePricing(c.Request.Context(), actorOf(sess), reqArgs.PropertyID, reqArgs.Pricing)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return p, nil
}

type UpdatePropertyAvailabilityArgs struct {
	PropertyID     string `json:"property_id"`
	AvailableRooms int    `json:"available_rooms"`
}

func (h *JsonApiHandler) updatePropertyAvailability(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs UpdatePropertyAvailabilityArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	sess := getSessionFromContext(c.Request.Context())
	p, err := h.propertyService.UpdateAvailability(c.Request.Context(), actorOf(sess), reqArgs.PropertyID, reqArgs.AvailableRooms)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return p, nil
}

type GetImageUploadURLArgs struct {
	PropertyID  string `json:"property_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

func (h *JsonApiHandler) getImageUploadURL(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs GetImageUploadURLArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	if reqArgs.PropertyID == "" || reqArgs.Filename == "" || reqArgs.ContentType == "" {
		return nil, NewApiError("Missing required arguments (property_id, filename, content_type)")
	}
	sess := getSessionFromContext(c.Request.Context())
	upload, err := h.propertyService.RequestImageUpload(c.Request.Context(), actorOf(sess), reqArgs.PropertyID, reqArgs.Filename, reqArgs.ContentType)
	if err != nil {
		return nil, h.fromServiceError(err)
	}
	return upload, nil
}

type ConfirmImageUploadArgs struct {
	PropertyID string `json:"property_id"`
	Key        string `json:"key"`
}

func (h *JsonApiHandler) confirmImageUpload(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs ConfirmImageUploadArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	if reqArgs.PropertyID == "" || reqArgs.Key == "" {
		return nil, NewApiError("Missing required arguments (property_id, key)")
	}
	sess := getSessionFromContext(c.Request.Context())
	if err := h.propertyService.ConfirmImageUpload(c.Request.Context(), actorOf(sess), reqArgs.PropertyID, reqArgs.Key); err != nil {
		return nil, h.fromServiceError(err)
	}
	return "processing", nil
}
