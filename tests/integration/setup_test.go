package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"minibooks/internal/handlers"
	"minibooks/internal/logger"
	"minibooks/internal/middleware"
	"minibooks/internal/models"
	"minibooks/internal/provider"
	"minibooks/internal/services"
	"minibooks/internal/validator"
)

const (
	testWebhookSecret  = "integration-webhook-secret"
	testPipelineAPIKey = "integration-pipeline-key"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Employee{},
		&models.Contract{},
		&models.ClassificationRule{},
		&models.LedgerEntry{},
		&models.ProviderTransaction{},
		&models.SyncAuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite. The provider client points at the given base URL so tests can
// stand in for the upstream API with httptest.
func setupApp(t *testing.T, providerBaseURL string) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	store := services.NewTransactionStore(db, auditService)
	classifier := services.NewClassifier(db)
	entryWriter := services.NewEntryWriter(db)
	reviewService := services.NewReviewService(db, entryWriter, auditService)

	liveProcessor := services.NewProcessor(db, store, classifier, entryWriter, auditService,
		services.AutoPostPolicy{Threshold: 80})
	batchProcessor := services.NewProcessor(db, store, classifier, entryWriter, auditService,
		services.AutoPostPolicy{Threshold: 40})

	providerClient := provider.NewHTTPClient(nil, providerBaseURL, "test-token", "p-1")

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	webhookHandler := handlers.NewWebhookHandler(liveProcessor, testWebhookSecret)
	syncHandler := handlers.NewSyncHandler(providerClient, batchProcessor)
	importHandler := handlers.NewImportHandler(batchProcessor)
	reviewHandler := handlers.NewReviewHandler(reviewService, classifier)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	v1.POST("/provider/webhook", webhookHandler.Receive)

	pipeline := v1.Group("/provider")
	pipeline.Use(middleware.PipelineAuthMiddleware(testPipelineAPIKey))
	pipeline.POST("/sync", syncHandler.Sync)
	pipeline.POST("/import", importHandler.Import)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	review := protected.Group("/provider/review")
	review.GET("", reviewHandler.List)
	review.GET("/stats", reviewHandler.Stats)
	review.POST("/:id/approve", reviewHandler.Approve)
	review.POST("/:id/reject", reviewHandler.Reject)
	review.POST("/bulk-approve", reviewHandler.BulkApprove)
	review.POST("/bulk-reject", reviewHandler.BulkReject)
	review.PATCH("/:id/classification", reviewHandler.UpdateClassification)
	review.GET("/:id/suggestions", reviewHandler.Suggestions)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(float64)
}

// waitForTransaction polls for the provider transaction with the given
// external id, since webhook processing continues after the ack.
func (app *testApp) waitForTransaction(t *testing.T, externalID string) *models.ProviderTransaction {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var tx models.ProviderTransaction
		err := app.DB.Where("external_id = ?", externalID).First(&tx).Error
		if err == nil {
			return &tx
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("transaction %s never appeared", externalID)
	return nil
}

// waitForSyncStatus polls until the transaction reaches the given status.
func (app *testApp) waitForSyncStatus(t *testing.T, externalID string, status models.SyncStatus) *models.ProviderTransaction {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		var tx models.ProviderTransaction
		err := app.DB.Where("external_id = ?", externalID).First(&tx).Error
		if err == nil && tx.SyncStatus == status {
			return &tx
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("transaction %s never reached status %s", externalID, status)
	return nil
}
