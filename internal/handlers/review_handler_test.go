package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "minibooks/internal/errors"
	"minibooks/internal/models"
	"minibooks/internal/pagination"
	"minibooks/internal/services"
)

// --- mock review service ---

type mockReviewService struct {
	listFn                 func(filter services.ReviewFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ProviderTransaction], error)
	getFn                  func(id uint) (*models.ProviderTransaction, error)
	approveFn              func(id uint, overrides services.ApproveOverrides, actor string) (*models.ProviderTransaction, error)
	rejectFn               func(id uint, reason, actor string) (*models.ProviderTransaction, error)
	bulkApproveFn          func(ids []uint, defaults services.ApproveOverrides, actor string) *services.BulkResult
	bulkRejectFn           func(ids []uint, reason, actor string) *services.BulkResult
	updateClassificationFn func(id uint, updates services.ClassificationUpdate, actor string) (*models.ProviderTransaction, error)
	statsFn                func() (*services.ReviewStats, error)
}

func (m *mockReviewService) ListForReview(filter services.ReviewFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ProviderTransaction], error) {
	if m.listFn != nil {
		return m.listFn(filter, page)
	}
	resp := pagination.NewPageResponse([]models.ProviderTransaction{}, 0, 50, 0)
	return &resp, nil
}

func (m *mockReviewService) Get(id uint) (*models.ProviderTransaction, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return &models.ProviderTransaction{Base: models.Base{ID: id}}, nil
}

func (m *mockReviewService) Approve(id uint, overrides services.ApproveOverrides, actor string) (*models.ProviderTransaction, error) {
	if m.approveFn != nil {
		return m.approveFn(id, overrides, actor)
	}
	return &models.ProviderTransaction{Base: models.Base{ID: id}}, nil
}

func (m *mockReviewService) Reject(id uint, reason, actor string) (*models.ProviderTransaction, error) {
	if m.rejectFn != nil {
		return m.rejectFn(id, reason, actor)
	}
	return &models.ProviderTransaction{Base: models.Base{ID: id}}, nil
}

func (m *mockReviewService) BulkApprove(ids []uint, defaults services.ApproveOverrides, actor string) *services.BulkResult {
	if m.bulkApproveFn != nil {
		return m.bulkApproveFn(ids, defaults, actor)
	}
	return &services.BulkResult{Succeeded: len(ids)}
}

func (m *mockReviewService) BulkReject(ids []uint, reason, actor string) *services.BulkResult {
	if m.bulkRejectFn != nil {
		return m.bulkRejectFn(ids, reason, actor)
	}
	return &services.BulkResult{Succeeded: len(ids)}
}

func (m *mockReviewService) UpdateClassification(id uint, updates services.ClassificationUpdate, actor string) (*models.ProviderTransaction, error) {
	if m.updateClassificationFn != nil {
		return m.updateClassificationFn(id, updates, actor)
	}
	return &models.ProviderTransaction{Base: models.Base{ID: id}}, nil
}

func (m *mockReviewService) Stats() (*services.ReviewStats, error) {
	if m.statsFn != nil {
		return m.statsFn()
	}
	return &services.ReviewStats{}, nil
}

var _ services.ReviewServicer = (*mockReviewService)(nil)

// --- mock classifier ---

type mockClassifier struct {
	classifyFn func(tx *models.ProviderTransaction) services.Classification
	suggestFn  func(tx *models.ProviderTransaction) []services.Classification
}

func (m *mockClassifier) Classify(tx *models.ProviderTransaction) services.Classification {
	if m.classifyFn != nil {
		return m.classifyFn(tx)
	}
	return services.Classification{}
}

func (m *mockClassifier) SuggestCategories(tx *models.ProviderTransaction) []services.Classification {
	if m.suggestFn != nil {
		return m.suggestFn(tx)
	}
	return nil
}

var _ services.Classifier = (*mockClassifier)(nil)

func setupReviewRouter(handler *ReviewHandler) *gin.Engine {
	r := gin.New()
	review := r.Group("/provider/review", injectUser(1, "reviewer@example.com"))
	review.GET("", handler.List)
	review.GET("/stats", handler.Stats)
	review.POST("/:id/approve", handler.Approve)
	review.POST("/:id/reject", handler.Reject)
	review.POST("/bulk-approve", handler.BulkApprove)
	review.POST("/bulk-reject", handler.BulkReject)
	review.PATCH("/:id/classification", handler.UpdateClassification)
	review.GET("/:id/suggestions", handler.Suggestions)
	return r
}

// --- tests ---

func TestReviewHandler_List(t *testing.T) {
	t.Run("returns the queue with filters applied", func(t *testing.T) {
		var gotFilter services.ReviewFilter
		var gotPage pagination.PageRequest
		svc := &mockReviewService{
			listFn: func(filter services.ReviewFilter, page pagination.PageRequest) (*pagination.PageResponse[models.ProviderTransaction], error) {
				gotFilter, gotPage = filter, page
				resp := pagination.NewPageResponse([]models.ProviderTransaction{
					{Base: models.Base{ID: 7}, ExternalID: "txn-7"},
				}, page.Offset, page.Limit, 1)
				return &resp, nil
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "GET", "/provider/review?needs_review=true&direction=DEBIT&limit=10", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.NeedsReview == nil || !*gotFilter.NeedsReview {
			t.Error("expected needs_review filter to be bound")
		}
		if gotFilter.Direction == nil || *gotFilter.Direction != models.DirectionDebit {
			t.Error("expected direction filter to be bound")
		}
		if gotPage.Limit != 10 {
			t.Errorf("expected limit 10, got %d", gotPage.Limit)
		}
		result := parseJSON(t, rec)
		if result["total"].(float64) != 1 {
			t.Errorf("expected total 1, got %v", result["total"])
		}
	})

	t.Run("returns 400 on an invalid direction filter", func(t *testing.T) {
		handler := NewReviewHandler(&mockReviewService{}, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "GET", "/provider/review?direction=SIDEWAYS", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on an out-of-range confidence filter", func(t *testing.T) {
		handler := NewReviewHandler(&mockReviewService{}, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "GET", "/provider/review?min_confidence=150", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReviewHandler_Approve(t *testing.T) {
	t.Run("approves with overrides and the reviewer as actor", func(t *testing.T) {
		var gotID uint
		var gotOverrides services.ApproveOverrides
		var gotActor string
		svc := &mockReviewService{
			approveFn: func(id uint, overrides services.ApproveOverrides, actor string) (*models.ProviderTransaction, error) {
				gotID, gotOverrides, gotActor = id, overrides, actor
				return &models.ProviderTransaction{Base: models.Base{ID: id}, SyncStatus: models.SyncStatusProcessed}, nil
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/42/approve", `{"category":"Software"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != 42 {
			t.Errorf("expected id 42, got %d", gotID)
		}
		if gotOverrides.Category == nil || *gotOverrides.Category != models.CategorySoftware {
			t.Error("expected category override to be bound")
		}
		if gotActor != "reviewer@example.com" {
			t.Errorf("expected actor reviewer@example.com, got %s", gotActor)
		}
	})

	t.Run("approves with an empty body", func(t *testing.T) {
		handler := NewReviewHandler(&mockReviewService{}, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/42/approve", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 404 for a missing transaction", func(t *testing.T) {
		svc := &mockReviewService{
			approveFn: func(_ uint, _ services.ApproveOverrides, _ string) (*models.ProviderTransaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/999/approve", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PROVIDER_TRANSACTION_NOT_FOUND")
	})

	t.Run("returns 409 when an entry already exists", func(t *testing.T) {
		svc := &mockReviewService{
			approveFn: func(_ uint, _ services.ApproveOverrides, _ string) (*models.ProviderTransaction, error) {
				return nil, apperrors.ErrAlreadyProcessed
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/42/approve", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on a non-numeric id", func(t *testing.T) {
		handler := NewReviewHandler(&mockReviewService{}, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/abc/approve", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReviewHandler_Reject(t *testing.T) {
	t.Run("rejects with a reason", func(t *testing.T) {
		var gotReason, gotActor string
		svc := &mockReviewService{
			rejectFn: func(id uint, reason, actor string) (*models.ProviderTransaction, error) {
				gotReason, gotActor = reason, actor
				return &models.ProviderTransaction{Base: models.Base{ID: id}, SyncStatus: models.SyncStatusSkipped}, nil
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/42/reject", `{"reason":"personal expense"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotReason != "personal expense" {
			t.Errorf("expected reason to be passed through, got %q", gotReason)
		}
		if gotActor != "reviewer@example.com" {
			t.Errorf("expected actor reviewer@example.com, got %s", gotActor)
		}
	})
}

func TestReviewHandler_BulkApprove(t *testing.T) {
	t.Run("reports the per-transaction outcome", func(t *testing.T) {
		svc := &mockReviewService{
			bulkApproveFn: func(ids []uint, _ services.ApproveOverrides, _ string) *services.BulkResult {
				return &services.BulkResult{
					Succeeded: len(ids) - 1,
					Failed:    1,
					Failures: []services.BulkFailure{
						{TransactionID: ids[len(ids)-1], Error: "Provider transaction not found"},
					},
				}
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/bulk-approve",
			`{"transaction_ids":[1,2,999]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)["result"].(map[string]interface{})
		if result["succeeded"].(float64) != 2 {
			t.Errorf("expected 2 succeeded, got %v", result["succeeded"])
		}
		if result["failed"].(float64) != 1 {
			t.Errorf("expected 1 failed, got %v", result["failed"])
		}
	})

	t.Run("returns 400 on an empty id list", func(t *testing.T) {
		handler := NewReviewHandler(&mockReviewService{}, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/bulk-approve", `{"transaction_ids":[]}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestReviewHandler_BulkReject(t *testing.T) {
	t.Run("passes ids and reason through", func(t *testing.T) {
		var gotIDs []uint
		var gotReason string
		svc := &mockReviewService{
			bulkRejectFn: func(ids []uint, reason, _ string) *services.BulkResult {
				gotIDs, gotReason = ids, reason
				return &services.BulkResult{Succeeded: len(ids)}
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "POST", "/provider/review/bulk-reject",
			`{"transaction_ids":[3,4],"reason":"duplicates"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(gotIDs) != 2 || gotReason != "duplicates" {
			t.Errorf("expected ids [3 4] with reason duplicates, got %v %q", gotIDs, gotReason)
		}
	})
}

func TestReviewHandler_UpdateClassification(t *testing.T) {
	t.Run("binds the partial update", func(t *testing.T) {
		var gotUpdates services.ClassificationUpdate
		svc := &mockReviewService{
			updateClassificationFn: func(id uint, updates services.ClassificationUpdate, _ string) (*models.ProviderTransaction, error) {
				gotUpdates = updates
				return &models.ProviderTransaction{Base: models.Base{ID: id}}, nil
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "PATCH", "/provider/review/42/classification",
			`{"category":"Marketing","needs_review":false}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUpdates.Category == nil || *gotUpdates.Category != models.CategoryMarketing {
			t.Error("expected category update to be bound")
		}
		if gotUpdates.NeedsReview == nil || *gotUpdates.NeedsReview {
			t.Error("expected needs_review false to be bound")
		}
	})
}

func TestReviewHandler_Stats(t *testing.T) {
	t.Run("returns the queue summary", func(t *testing.T) {
		avg := 62.5
		svc := &mockReviewService{
			statsFn: func() (*services.ReviewStats, error) {
				return &services.ReviewStats{
					PendingReview:  4,
					LowConfidence:  2,
					ApprovedToday:  1,
					AvgConfidence:  &avg,
					TotalProcessed: 10,
				}, nil
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "GET", "/provider/review/stats", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		stats := parseJSON(t, rec)["stats"].(map[string]interface{})
		if stats["pending_review"].(float64) != 4 {
			t.Errorf("expected pending_review 4, got %v", stats["pending_review"])
		}
		if stats["avg_confidence_score"].(float64) != 62.5 {
			t.Errorf("expected avg 62.5, got %v", stats["avg_confidence_score"])
		}
	})
}

func TestReviewHandler_Suggestions(t *testing.T) {
	t.Run("returns candidates for the transaction", func(t *testing.T) {
		svc := &mockReviewService{
			getFn: func(id uint) (*models.ProviderTransaction, error) {
				return &models.ProviderTransaction{Base: models.Base{ID: id}, Description: "Netflix"}, nil
			},
		}
		classifier := &mockClassifier{
			suggestFn: func(_ *models.ProviderTransaction) []services.Classification {
				return []services.Classification{
					{Category: models.CategoryEntertainment, Confidence: 80},
					{Category: models.CategoryOtherExpenses, Confidence: 30},
				}
			},
		}
		handler := NewReviewHandler(svc, classifier)
		r := setupReviewRouter(handler)

		rec := doRequest(r, "GET", "/provider/review/42/suggestions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		suggestions := parseJSON(t, rec)["suggestions"].([]interface{})
		if len(suggestions) != 2 {
			t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
		}
	})

	t.Run("returns 404 for a missing transaction", func(t *testing.T) {
		svc := &mockReviewService{
			getFn: func(_ uint) (*models.ProviderTransaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		handler := NewReviewHandler(svc, &mockClassifier{})
		r := setupReviewRouter(handler)

		rec := doRequest(r, "GET", "/provider/review/999/suggestions", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
