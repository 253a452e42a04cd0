package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"juragites_estimation/internal/adapter/http/handlers/mocks"
	"juragites_estimation/internal/adapter/http/middleware"
	"juragites_estimation/internal/domain/domainerr"
	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
)

var testClient = entities.Caller{ClientID: "client-1", Role: entities.RoleClient}

func newEstimationRouter(uc usecase.IEstimationUseCase) *gin.Engine {
	h := NewEstimationHandler(uc)
	r := gin.New()
	r.Use(middleware.WithCaller(testClient), middleware.RequestMeta())
	r.POST("/v1/estimations", h.Create)
	r.GET("/v1/estimations", h.List)
	r.GET("/v1/estimations/:id", h.Get)
	r.PUT("/v1/estimations/:id/attributes", h.UpdateAttributes)
	r.POST("/v1/estimations/:id/submit", h.Submit)
	r.POST("/v1/estimations/:id/consent", h.Consent)
	r.POST("/v1/estimations/:id/cancel", h.Cancel)
	r.GET("/v1/estimations/:id/result", h.Result)
	r.GET("/v1/estimations/:id/report", h.Report)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body %q: %v", w.Body.String(), err)
	}
	return body
}

func TestEstimationHandler_Create(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("invalid payload", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)

		w := doJSON(newEstimationRouter(uc), http.MethodPost, "/v1/estimations", "{")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("missing reason", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)

		w := doJSON(newEstimationRouter(uc), http.MethodPost, "/v1/estimations", `{"attributes":{}}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("validation error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().Create(gomock.Any(), testClient, gomock.Any(), gomock.Any()).
			Return(entities.Estimation{}, domainerr.NewValidationError("reason", "unknown reason"))

		w := doJSON(newEstimationRouter(uc), http.MethodPost, "/v1/estimations", `{"reason":"lottery"}`)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
		if body := decodeBody(t, w); body["code"] != "VALIDATION_ERROR" {
			t.Fatalf("unexpected code: %v", body["code"])
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().Create(gomock.Any(), testClient, gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, _ entities.Caller, in usecase.CreateEstimationInput, meta entities.RequestMeta) (entities.Estimation, error) {
				if in.Reason != entities.ReasonSale {
					t.Fatalf("unexpected reason %q", in.Reason)
				}
				if len(in.Attributes.Amenities) != 1 || in.Attributes.Amenities[0] != "pool" {
					t.Fatalf("unexpected amenities %v", in.Attributes.Amenities)
				}
				if meta.IPAddress == "" {
					t.Fatalf("expected request ip in meta")
				}
				return entities.Estimation{ID: "est-1", ClientID: "client-1", Reason: in.Reason, Status: entities.EstimationStatusDraft, PaymentStatus: entities.PaymentStatusPending}, nil
			})

		w := doJSON(newEstimationRouter(uc), http.MethodPost, "/v1/estimations",
			`{"reason":" sale ","attributes":{"property_type":"house","habitable_area":120,"condition":"good","amenities":["pool"," "]}}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["id"] != "est-1" || body["status"] != "draft" {
			t.Fatalf("unexpected body: %v", body)
		}
		if _, ok := body["result"]; ok {
			t.Fatalf("estimation response must not carry the result")
		}
	})
}

func TestEstimationHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: usecase.ErrEstimationNotFound, status: http.StatusNotFound},
		{name: "forbidden", err: usecase.ErrForbidden, status: http.StatusForbidden},
		{name: "invalid id", err: usecase.ErrInvalidEstimationID, status: http.StatusBadRequest},
		{name: "persistence", err: domainerr.NewPersistenceError("get estimation", errors.New("boom")), status: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			uc := mocks.NewMockIEstimationUseCase(ctrl)
			uc.EXPECT().Get(gomock.Any(), testClient, "est-1").Return(entities.Estimation{}, tc.err)

			w := doJSON(newEstimationRouter(uc), http.MethodGet, "/v1/estimations/est-1", "")
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
		})
	}

	t.Run("internal error hides cause", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().Get(gomock.Any(), testClient, "est-1").
			Return(entities.Estimation{}, domainerr.NewPersistenceError("get estimation", errors.New("table secret_table missing")))

		w := doJSON(newEstimationRouter(uc), http.MethodGet, "/v1/estimations/est-1", "")
		if bytes.Contains(w.Body.Bytes(), []byte("secret_table")) {
			t.Fatalf("internal cause leaked: %s", w.Body.String())
		}
	})
}

func TestEstimationHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	uc := mocks.NewMockIEstimationUseCase(ctrl)
	uc.EXPECT().List(gomock.Any(), testClient).Return([]entities.Estimation{{ID: "a"}, {ID: "b"}}, nil)

	w := doJSON(newEstimationRouter(uc), http.MethodGet, "/v1/estimations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 estimations, got %d", len(list))
	}
}

func TestEstimationHandler_Transitions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("attributes frozen after payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().UpdateAttributes(gomock.Any(), testClient, "est-1", gomock.Any()).
			Return(entities.Estimation{}, &domainerr.StateTransitionError{From: "payment_confirmed", Action: "update attributes"})

		w := doJSON(newEstimationRouter(uc), http.MethodPut, "/v1/estimations/est-1/attributes", `{"property_type":"house"}`)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("submit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().Submit(gomock.Any(), testClient, "est-1", gomock.Any()).
			Return(entities.Estimation{ID: "est-1", Status: entities.EstimationStatusSubmitted}, nil)

		w := doJSON(newEstimationRouter(uc), http.MethodPost, "/v1/estimations/est-1/submit", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("consent refused", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().AcceptConsent(gomock.Any(), testClient, "est-1", usecase.ConsentInput{Accepted: false}, gomock.Any()).
			Return(entities.Estimation{}, usecase.ErrConsentNotAccepted)

		w := doJSON(newEstimationRouter(uc), http.MethodPost, "/v1/estimations/est-1/consent", `{}`)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", w.Code)
		}
	})

	t.Run("cancel without body", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().Cancel(gomock.Any(), testClient, "est-1", "", gomock.Any()).
			Return(entities.Estimation{ID: "est-1", Status: entities.EstimationStatusCancelled}, nil)

		w := doJSON(newEstimationRouter(uc), http.MethodPost, "/v1/estimations/est-1/cancel", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})
}

func TestEstimationHandler_Result(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("not available", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().ViewResult(gomock.Any(), testClient, "est-1", gomock.Any()).Return(entities.Estimation{}, usecase.ErrResultNotAvailable)

		w := doJSON(newEstimationRouter(uc), http.MethodGet, "/v1/estimations/est-1/result", "")
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().ViewResult(gomock.Any(), testClient, "est-1", gomock.Any()).Return(entities.Estimation{
			ID:     "est-1",
			Reason: entities.ReasonSale,
			Result: &entities.ValuationResult{Low: 180000, Median: 200000, High: 220000, ConfidenceLevel: entities.ConfidenceLevel("high"), ConfidenceMargin: 10},
		}, nil)

		w := doJSON(newEstimationRouter(uc), http.MethodGet, "/v1/estimations/est-1/result", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		body := decodeBody(t, w)
		if fmt.Sprint(body["estimated_value_medium"]) != "200000" {
			t.Fatalf("unexpected median: %v", body["estimated_value_medium"])
		}
		if body["disclaimer"] == "" {
			t.Fatalf("expected disclaimer")
		}
	})
}

func TestEstimationHandler_Report(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("not available", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		uc.EXPECT().DownloadReport(gomock.Any(), testClient, "est-1", gomock.Any()).Return(usecase.ReportLink{}, usecase.ErrReportNotAvailable)

		w := doJSON(newEstimationRouter(uc), http.MethodGet, "/v1/estimations/est-1/report", "")
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		uc := mocks.NewMockIEstimationUseCase(ctrl)
		expires := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		uc.EXPECT().DownloadReport(gomock.Any(), testClient, "est-1", gomock.Any()).
			Return(usecase.ReportLink{URL: "https://bucket/report?sig=x", ExpiresAt: expires}, nil)

		w := doJSON(newEstimationRouter(uc), http.MethodGet, "/v1/estimations/est-1/report", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if body := decodeBody(t, w); body["url"] != "https://bucket/report?sig=x" {
			t.Fatalf("unexpected url: %v", body["url"])
		}
	})
}
