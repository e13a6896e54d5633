package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/labs/fleamarket/internal/cache"
	"github.com/labs/fleamarket/internal/config"
	"github.com/labs/fleamarket/internal/database/dbtest"
	"github.com/labs/fleamarket/internal/models"
	"github.com/labs/fleamarket/internal/router"
	"github.com/labs/fleamarket/internal/services"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	admin  *models.User
}

func (suite *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
}

func (suite *APITestSuite) SetupTest() {
	suite.db = dbtest.New(suite.T())

	cfg := &config.Config{
		Market: config.MarketConfig{
			AllowedEmailDomain:   "strathmore.edu",
			ListingAutoApprove:   true,
			BidMaxRetries:        5,
			ItemPageSize:         100,
			NotificationPageSize: 50,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	suite.router = router.Initialize(router.Dependencies{
		DB:      suite.db,
		Cache:   cache.New(nil),
		Storage: services.NewLocalStorageService(suite.T().TempDir(), "http://localhost:8080", 1<<20),
	}, cfg)

	suite.admin = &models.User{}
	suite.Require().NoError(suite.db.First(suite.admin, "email = ?", "admin@strathmore.edu").Error)
}

func (suite *APITestSuite) request(method, path string, body interface{}, userID string) (int, envelope) {
	var payload bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response envelope
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w.Code, response
}

func (suite *APITestSuite) approvedUser(first string, role models.UserRole) *models.User {
	user := &models.User{
		Email:     first + "-" + uuid.NewString()[:8] + "@strathmore.edu",
		FirstName: first,
		LastName:  "Tester",
		Role:      role,
		Status:    models.UserStatusApproved,
	}
	suite.Require().NoError(user.SetPassword("password"))
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *APITestSuite) createAuction(seller *models.User, startingBid float64) models.Item {
	status, resp := suite.request(http.MethodPost, "/api/items", map[string]interface{}{
		"title":       "Graphing calculator",
		"description": "TI-84, barely used",
		"itemType":    "AUCTION",
		"startingBid": startingBid,
	}, seller.ID.String())
	suite.Require().Equal(http.StatusCreated, status, resp.Message)

	var item models.Item
	suite.Require().NoError(json.Unmarshal(resp.Data, &item))
	return item
}

func (suite *APITestSuite) TestHealth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestRegisterRequiresApprovalBeforeLogin() {
	status, resp := suite.request(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email":     "new.student@strathmore.edu",
		"password":  "secret123",
		"firstName": "New",
		"lastName":  "Student",
	}, "")
	suite.Require().Equal(http.StatusCreated, status, resp.Message)

	var created struct {
		User models.User `json:"user"`
	}
	suite.Require().NoError(json.Unmarshal(resp.Data, &created))
	suite.Equal(models.UserStatusPending, created.User.Status)

	login := map[string]interface{}{"email": "new.student@strathmore.edu", "password": "secret123"}
	_, resp = suite.request(http.MethodPost, "/api/auth/login", login, "")
	suite.False(resp.Success)
	suite.Equal("UNAUTHORIZED", resp.Code)

	status, resp = suite.request(http.MethodPut, "/api/admin/users/"+created.User.ID.String()+"/status",
		map[string]interface{}{"status": "APPROVED"}, suite.admin.ID.String())
	suite.Require().Equal(http.StatusOK, status, resp.Message)

	status, resp = suite.request(http.MethodPost, "/api/auth/login", login, "")
	suite.Require().Equal(http.StatusOK, status, resp.Message)

	var auth services.AuthResponse
	suite.Require().NoError(json.Unmarshal(resp.Data, &auth))
	suite.Equal(created.User.ID.String(), auth.Token)

	var logs int64
	suite.db.Model(&models.AuditLog{}).Where("action = ?", "UPDATE_USER_STATUS").Count(&logs)
	suite.Equal(int64(1), logs)
}

func (suite *APITestSuite) TestRegisterRejectsForeignDomain() {
	status, resp := suite.request(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email":     "someone@gmail.com",
		"password":  "secret123",
		"firstName": "Some",
		"lastName":  "One",
	}, "")
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("VALIDATION", resp.Code)
}

func (suite *APITestSuite) TestBidFlow() {
	seller := suite.approvedUser("Sam", models.RoleSeller)
	buyer := suite.approvedUser("Bea", models.RoleBuyer)
	item := suite.createAuction(seller, 100)

	suite.Equal(models.ItemStatusActive, item.Status)
	suite.Require().NotNil(item.CurrentBid)
	suite.Equal(100.0, *item.CurrentBid)

	bidPath := "/api/items/" + item.ID.String() + "/bids"

	status, resp := suite.request(http.MethodPost, bidPath, map[string]interface{}{"amount": 100}, buyer.ID.String())
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("INVALID_BID", resp.Code)

	status, resp = suite.request(http.MethodPost, bidPath, map[string]interface{}{"amount": 150}, buyer.ID.String())
	suite.Require().Equal(http.StatusCreated, status, resp.Message)

	var bid services.BidResponse
	suite.Require().NoError(json.Unmarshal(resp.Data, &bid))
	suite.Equal(150.0, bid.Amount)
	suite.Equal("Bea Tester", bid.BidderName)

	status, resp = suite.request(http.MethodGet, bidPath+"/highest", nil, "")
	suite.Require().Equal(http.StatusOK, status)
	suite.Require().NoError(json.Unmarshal(resp.Data, &bid))
	suite.Equal(150.0, bid.Amount)

	status, resp = suite.request(http.MethodGet, "/api/notifications?unreadOnly=true", nil, seller.ID.String())
	suite.Require().Equal(http.StatusOK, status)

	var notifications []models.Notification
	suite.Require().NoError(json.Unmarshal(resp.Data, &notifications))
	suite.Require().Len(notifications, 1)
	suite.Equal(models.NotificationBid, notifications[0].Type)
	suite.Equal("New Bid on Graphing calculator", notifications[0].Title)

	status, _ = suite.request(http.MethodPut, "/api/notifications/"+notifications[0].ID.String()+"/read", nil, buyer.ID.String())
	suite.Equal(http.StatusForbidden, status)

	status, _ = suite.request(http.MethodPut, "/api/notifications/"+notifications[0].ID.String()+"/read", nil, seller.ID.String())
	suite.Equal(http.StatusOK, status)

	_, resp = suite.request(http.MethodGet, "/api/notifications?unreadOnly=true", nil, seller.ID.String())
	suite.Require().NoError(json.Unmarshal(resp.Data, &notifications))
	suite.Empty(notifications)
}

func (suite *APITestSuite) TestBidRejections() {
	seller := suite.approvedUser("Sam", models.RoleSeller)
	buyer := suite.approvedUser("Bea", models.RoleBuyer)

	status, resp := suite.request(http.MethodPost, "/api/items", map[string]interface{}{
		"title":    "Office chair",
		"itemType": "FIXED_PRICE",
		"price":    2500,
	}, seller.ID.String())
	suite.Require().Equal(http.StatusCreated, status, resp.Message)
	var fixed models.Item
	suite.Require().NoError(json.Unmarshal(resp.Data, &fixed))

	status, resp = suite.request(http.MethodPost, "/api/items/"+fixed.ID.String()+"/bids",
		map[string]interface{}{"amount": 3000}, buyer.ID.String())
	suite.Equal(http.StatusConflict, status)
	suite.Equal("INVALID_STATE", resp.Code)

	status, resp = suite.request(http.MethodPost, "/api/items/"+uuid.NewString()+"/bids",
		map[string]interface{}{"amount": 3000}, buyer.ID.String())
	suite.Equal(http.StatusNotFound, status)
	suite.Equal("NOT_FOUND", resp.Code)

	auction := suite.createAuction(seller, 100)
	status, resp = suite.request(http.MethodPost, "/api/items/"+auction.ID.String()+"/bids",
		map[string]interface{}{"amount": 200}, uuid.NewString())
	suite.Equal(http.StatusNotFound, status)
	suite.Equal("user not found", resp.Message)

	status, resp = suite.request(http.MethodPost, "/api/items/"+auction.ID.String()+"/bids",
		map[string]interface{}{"amount": 200}, "")
	suite.Equal(http.StatusUnauthorized, status)
	suite.Equal("UNAUTHORIZED", resp.Code)
}

func (suite *APITestSuite) TestCreateItemRejectsLocalImages() {
	seller := suite.approvedUser("Sam", models.RoleSeller)

	status, resp := suite.request(http.MethodPost, "/api/items", map[string]interface{}{
		"title":    "Jacket",
		"itemType": "FIXED_PRICE",
		"price":    800,
		"images":   []string{"content://media/external/images/1"},
	}, seller.ID.String())
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("VALIDATION", resp.Code)
}

func (suite *APITestSuite) TestDeletedItemDisappears() {
	seller := suite.approvedUser("Sam", models.RoleSeller)
	other := suite.approvedUser("Oli", models.RoleSeller)
	item := suite.createAuction(seller, 50)
	path := "/api/items/" + item.ID.String()

	status, _ := suite.request(http.MethodDelete, path, nil, other.ID.String())
	suite.Equal(http.StatusForbidden, status)

	status, _ = suite.request(http.MethodDelete, path, nil, seller.ID.String())
	suite.Require().Equal(http.StatusOK, status)

	status, _ = suite.request(http.MethodGet, path, nil, "")
	suite.Equal(http.StatusNotFound, status)

	_, resp := suite.request(http.MethodGet, "/api/items", nil, "")
	var items []models.Item
	suite.Require().NoError(json.Unmarshal(resp.Data, &items))
	suite.Empty(items)
}

func (suite *APITestSuite) TestAdminRoutesRequireAdmin() {
	buyer := suite.approvedUser("Bea", models.RoleBuyer)

	status, resp := suite.request(http.MethodGet, "/api/admin/users", nil, buyer.ID.String())
	suite.Equal(http.StatusForbidden, status)
	suite.False(resp.Success)

	status, resp = suite.request(http.MethodGet, "/api/admin/users", nil, suite.admin.ID.String())
	suite.Equal(http.StatusOK, status)
	suite.True(resp.Success)
}

func (suite *APITestSuite) TestAdminModeratesItem() {
	seller := suite.approvedUser("Sam", models.RoleSeller)
	item := suite.createAuction(seller, 10)

	status, resp := suite.request(http.MethodPut, "/api/admin/items/"+item.ID.String()+"/status",
		map[string]interface{}{"status": "PENDING"}, suite.admin.ID.String())
	suite.Require().Equal(http.StatusOK, status, resp.Message)

	status, resp = suite.request(http.MethodPut, "/api/admin/items/"+item.ID.String()+"/status",
		map[string]interface{}{"status": "BOGUS"}, suite.admin.ID.String())
	suite.Equal(http.StatusBadRequest, status)
	suite.Equal("VALIDATION", resp.Code)

	status, _ = suite.request(http.MethodDelete, "/api/admin/items/"+item.ID.String(), nil, suite.admin.ID.String())
	suite.Require().Equal(http.StatusOK, status)

	var notifications []models.Notification
	suite.Require().NoError(suite.db.Where("user_id = ?", seller.ID).Order("created_at ASC").Find(&notifications).Error)
	suite.Require().Len(notifications, 2)
	suite.Equal(models.NotificationSystem, notifications[0].Type)
	suite.Equal(models.NotificationInfo, notifications[1].Type)
}

func (suite *APITestSuite) TestCategories() {
	status, resp := suite.request(http.MethodGet, "/api/categories", nil, "")
	suite.Require().Equal(http.StatusOK, status)

	var categories []models.Category
	suite.Require().NoError(json.Unmarshal(resp.Data, &categories))
	suite.Len(categories, 8)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
