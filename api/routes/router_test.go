package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/printhaus/printhaus-backend/internal/orders"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	"github.com/printhaus/printhaus-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubOrdersService struct {
	order *models.Order
}

func (s stubOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	return s.order, nil
}

func (s stubOrdersService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.order, nil
}

func (s stubOrdersService) GetByShareToken(ctx context.Context, token string) (*models.Order, error) {
	return s.order, nil
}

func (s stubOrdersService) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	return nil, nil
}

func (s stubOrdersService) ConfirmPayment(ctx context.Context, input orders.ConfirmPaymentInput) (*models.Order, bool, error) {
	return s.order, false, nil
}

func (s stubOrdersService) CancelExpired(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

func (s stubOrdersService) RecordPaymentFailure(ctx context.Context, orderID uuid.UUID, failureReason string, gatewayResponse []byte) (bool, error) {
	return false, nil
}

func (s stubOrdersService) MarkRefunded(ctx context.Context, orderID uuid.UUID, gatewayResponse []byte) (*models.Order, bool, error) {
	return s.order, false, nil
}

func (s stubOrdersService) RecordAdvisoryIntent(ctx context.Context, orderID uuid.UUID, intentID string, gatewayResponse []byte) error {
	return nil
}

func (s stubOrdersService) FindPaymentByStripeID(ctx context.Context, stripePaymentID string) (*models.Payment, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	sampleOrder := &models.Order{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Status:     enums.OrderStatusPending,
		Currency:   "usd",
		ShareToken: "abc123",
	}
	return NewRouter(Deps{
		Config: cfg,
		Logger: logg,
		DB:     stubPinger{},
		Redis:  stubPinger{},
		Orders: stubOrdersService{order: sampleOrder},
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Printhaus-Env"); got != "test" {
		t.Fatalf("expected env header, got %q", got)
	}
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness got %d", resp.Code)
	}
}

func TestGetOrderRejectsMalformedID(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed order id got %d", resp.Code)
	}
}

func TestGetOrderReturnsProjection(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for order lookup got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "share_token") {
		t.Fatalf("expected order projection in body, got %s", resp.Body.String())
	}
}

func TestSharedOrderLookup(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/shared/abc123", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for shared order lookup got %d", resp.Code)
	}
}

func TestCreateOrderRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestCreateOrderAcceptsValidPayload(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{
  "customer_id": "` + uuid.NewString() + `",
  "items": [
    {"product_id": "` + uuid.NewString() + `", "name": "Panther Tee", "qty": 1, "unit_price_cents": 1500}
  ]
}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for valid payload got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestWebhookRouteRequiresService(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader("{}"))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when webhook service is missing got %d", resp.Code)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route got %d", resp.Code)
	}
}
