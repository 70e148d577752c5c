package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/hotel-reservation-system/internal/clients"
	"github.com/mmeshcher/hotel-reservation-system/internal/model"
	"github.com/mmeshcher/hotel-reservation-system/internal/repository"
	"github.com/mmeshcher/hotel-reservation-system/internal/service"
)

type stubLoyaltyService struct {
	account *model.LoyaltyAccount
	err     error

	adjustCount    int
	adjustExpected *int
}

func (s *stubLoyaltyService) Register(ctx context.Context, username string, count int) (*model.LoyaltyAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	a := model.NewLoyaltyAccount(username, count)
	return &a, nil
}

func (s *stubLoyaltyService) Get(ctx context.Context, username string) (*model.LoyaltyAccount, error) {
	return s.account, s.err
}

func (s *stubLoyaltyService) Adjust(ctx context.Context, username string, newCount int, expected *int) (*model.LoyaltyAccount, error) {
	s.adjustCount = newCount
	s.adjustExpected = expected
	return s.account, s.err
}

type stubPaymentService struct {
	payment  *model.Payment
	payments []model.Payment
	result   model.CompensationResult
	err      error

	deletedBy string
}

func (s *stubPaymentService) CreatePayment(ctx context.Context, reservationID string, price *int) (*model.Payment, error) {
	return s.payment, s.err
}

func (s *stubPaymentService) GetPayment(ctx context.Context, paymentUID string) (*model.Payment, error) {
	return s.payment, s.err
}

func (s *stubPaymentService) ListPayments(ctx context.Context, page, perPage int) ([]model.Payment, error) {
	return s.payments, s.err
}

func (s *stubPaymentService) DeletePayment(ctx context.Context, paymentUID, username string) (*model.Payment, model.CompensationResult, error) {
	s.deletedBy = username
	return s.payment, s.result, s.err
}

type stubReservationService struct {
	reservation  *model.Reservation
	reservations []model.Reservation
	result       model.CompensationResult
	report       *model.ReconciliationReport
	hotel        *model.Hotel
	err          error

	createInput service.CreateReservationInput
}

func (s *stubReservationService) CreateReservation(ctx context.Context, in service.CreateReservationInput) (*model.Reservation, model.CompensationResult, error) {
	s.createInput = in
	return s.reservation, s.result, s.err
}

func (s *stubReservationService) CancelReservation(ctx context.Context, reservationUID string) (*model.Reservation, model.CompensationResult, error) {
	return s.reservation, s.result, s.err
}

func (s *stubReservationService) GetReservation(ctx context.Context, reservationUID string) (*model.Reservation, error) {
	return s.reservation, s.err
}

func (s *stubReservationService) ListReservationsByUser(ctx context.Context, username string) ([]model.Reservation, error) {
	return s.reservations, s.err
}

func (s *stubReservationService) UpdateReservationStatus(ctx context.Context, reservationUID, status string) (*model.Reservation, error) {
	return s.reservation, s.err
}

func (s *stubReservationService) Reconcile(ctx context.Context, username string) (*model.ReconciliationReport, error) {
	return s.report, s.err
}

func (s *stubReservationService) CreateHotel(ctx context.Context, in service.HotelInput) (*model.Hotel, error) {
	return s.hotel, s.err
}

func (s *stubReservationService) ListHotels(ctx context.Context, page, perPage int) ([]model.Hotel, error) {
	return nil, s.err
}

func (s *stubReservationService) GetHotel(ctx context.Context, hotelUID string) (*model.Hotel, error) {
	return s.hotel, s.err
}

func (s *stubReservationService) DeleteHotel(ctx context.Context, hotelUID string) error {
	return s.err
}

func serve(t *testing.T, h http.Handler, method, target string, body any, headers map[string]string) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	res := rec.Result()
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func wantStatus(t *testing.T, res *http.Response, want int) {
	t.Helper()
	if res.StatusCode != want {
		t.Fatalf("status = %d, want %d", res.StatusCode, want)
	}
}

func TestCreateLoyalty(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
	}{
		{
			name:   "created",
			body:   map[string]any{"username": "alice", "reservation_count": 0, "status": "UNDEFINED", "discount": 0},
			status: http.StatusCreated,
		},
		{
			name:   "missing discount",
			body:   map[string]any{"username": "alice", "reservation_count": 0, "status": "UNDEFINED"},
			status: http.StatusBadRequest,
		},
		{
			name:   "malformed body",
			body:   "{",
			status: http.StatusBadRequest,
		},
		{
			name:   "duplicate",
			body:   map[string]any{"username": "alice", "reservation_count": 0, "status": "UNDEFINED", "discount": 0},
			err:    fmt.Errorf("create loyalty: %w", repository.ErrLoyaltyExists),
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLoyaltyHandler(&stubLoyaltyService{err: tt.err}, zap.NewNop()).SetupRouter()

			res := serve(t, h, http.MethodPost, "/loyalty", tt.body, nil)
			wantStatus(t, res, tt.status)
			if msg := decodeBody(t, res)["message"]; msg == "" || msg == nil {
				t.Fatalf("message is empty")
			}
		})
	}
}

func TestGetLoyalty(t *testing.T) {
	account := model.NewLoyaltyAccount("alice", 12)
	h := NewLoyaltyHandler(&stubLoyaltyService{account: &account}, zap.NewNop()).SetupRouter()

	res := serve(t, h, http.MethodGet, "/loyalty/alice", nil, nil)
	wantStatus(t, res, http.StatusOK)

	var got model.LoyaltyAccount
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != model.TierBronze || got.Discount != 5 || got.ReservationCount != 12 {
		t.Fatalf("account = %+v", got)
	}
}

func TestGetLoyalty_NotFound(t *testing.T) {
	h := NewLoyaltyHandler(&stubLoyaltyService{err: repository.ErrLoyaltyNotFound}, zap.NewNop()).SetupRouter()

	res := serve(t, h, http.MethodGet, "/loyalty/ghost", nil, nil)
	wantStatus(t, res, http.StatusNotFound)
}

func TestAdjustLoyalty(t *testing.T) {
	svc := &stubLoyaltyService{}
	h := NewLoyaltyHandler(svc, zap.NewNop()).SetupRouter()

	res := serve(t, h, http.MethodPatch, "/loyalty/alice/", map[string]any{"reservation_count": 7, "expected_count": 6}, nil)
	wantStatus(t, res, http.StatusOK)

	if svc.adjustCount != 7 || svc.adjustExpected == nil || *svc.adjustExpected != 6 {
		t.Fatalf("adjust called with %d, %v", svc.adjustCount, svc.adjustExpected)
	}
}

func TestAdjustLoyalty_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
	}{
		{name: "missing count", body: map[string]any{}, status: http.StatusBadRequest},
		{name: "negative count", body: map[string]any{"reservation_count": -1}, err: service.ErrValidation, status: http.StatusBadRequest},
		{name: "not found", body: map[string]any{"reservation_count": 1}, err: repository.ErrLoyaltyNotFound, status: http.StatusNotFound},
		{name: "count changed", body: map[string]any{"reservation_count": 1, "expected_count": 0}, err: repository.ErrCountConflict, status: http.StatusConflict},
		{name: "storage failure", body: map[string]any{"reservation_count": 1}, err: errors.New("connection reset"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewLoyaltyHandler(&stubLoyaltyService{err: tt.err}, zap.NewNop()).SetupRouter()

			res := serve(t, h, http.MethodPatch, "/loyalty/alice/", tt.body, nil)
			wantStatus(t, res, tt.status)
		})
	}
}

func TestCreatePayment(t *testing.T) {
	svc := &stubPaymentService{payment: &model.Payment{PaymentUID: "p-1"}}
	h := NewPaymentHandler(svc, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodPost, "/payment", map[string]any{"reservation_id": "r-1", "price": 100}, nil)
	wantStatus(t, res, http.StatusCreated)

	if uid := decodeBody(t, res)["payment_uid"]; uid != "p-1" {
		t.Fatalf("payment_uid = %v, want p-1", uid)
	}
}

func TestCreatePayment_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
	}{
		{name: "missing price", body: map[string]any{"reservation_id": "r-1"}, status: http.StatusBadRequest},
		{
			name:   "reservation not found",
			body:   map[string]any{"reservation_id": "r-1", "price": 100},
			err:    fmt.Errorf("get reservation: %w", &clients.UpstreamError{Service: "reservation", StatusCode: http.StatusNotFound}),
			status: http.StatusNotFound,
		},
		{
			name:   "reservation service down",
			body:   map[string]any{"reservation_id": "r-1", "price": 100},
			err:    clients.TransportError("reservation", errors.New("connection refused")),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPaymentHandler(&stubPaymentService{err: tt.err}, zap.NewNop(), nil).SetupRouter()

			res := serve(t, h, http.MethodPost, "/payment", tt.body, nil)
			wantStatus(t, res, tt.status)
		})
	}
}

func TestListPayments_Empty(t *testing.T) {
	h := NewPaymentHandler(&stubPaymentService{}, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodGet, "/payments?page=2&per_page=5", nil, nil)
	wantStatus(t, res, http.StatusOK)

	payments, ok := decodeBody(t, res)["payments"].([]any)
	if !ok || len(payments) != 0 {
		t.Fatalf("payments = %v, want empty array", payments)
	}
}

func TestDeletePayment(t *testing.T) {
	tests := []struct {
		name             string
		headers          map[string]string
		result           model.CompensationResult
		err              error
		status           int
		wantCompensation string
	}{
		{
			name:             "compensated",
			headers:          map[string]string{"X-User-Name": "bob"},
			result:           model.CompensationResult{Status: model.CompensationSucceeded},
			status:           http.StatusOK,
			wantCompensation: "succeeded",
		},
		{
			name:             "pending payment",
			headers:          map[string]string{"X-User-Name": "bob"},
			result:           model.CompensationResult{Status: model.CompensationSkipped},
			status:           http.StatusOK,
			wantCompensation: "skipped",
		},
		{
			name:    "loyalty user missing",
			headers: map[string]string{"X-User-Name": "bob"},
			result: model.CompensationResult{
				Status: model.CompensationFailed,
				Err:    &clients.UpstreamError{Service: "loyalty", StatusCode: http.StatusNotFound},
			},
			status:           http.StatusNotFound,
			wantCompensation: "failed",
		},
		{
			name:    "loyalty unreachable",
			headers: map[string]string{"X-User-Name": "bob"},
			result: model.CompensationResult{
				Status: model.CompensationFailed,
				Err:    clients.TransportError("loyalty", errors.New("connection refused")),
			},
			status:           http.StatusInternalServerError,
			wantCompensation: "failed",
		},
		{
			name:   "missing header",
			status: http.StatusBadRequest,
		},
		{
			name:    "not found",
			headers: map[string]string{"X-User-Name": "bob"},
			err:     repository.ErrPaymentNotFound,
			status:  http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubPaymentService{payment: &model.Payment{PaymentUID: "p-1"}, result: tt.result, err: tt.err}
			h := NewPaymentHandler(svc, zap.NewNop(), nil).SetupRouter()

			res := serve(t, h, http.MethodDelete, "/payment/p-1", nil, tt.headers)
			wantStatus(t, res, tt.status)

			body := decodeBody(t, res)
			if tt.wantCompensation != "" && body["compensation"] != tt.wantCompensation {
				t.Fatalf("compensation = %v, want %s", body["compensation"], tt.wantCompensation)
			}
			if tt.wantCompensation == "failed" && body["payment_deleted"] != true {
				t.Fatalf("payment_deleted = %v, want true", body["payment_deleted"])
			}
			if tt.headers != nil && svc.deletedBy != "bob" {
				t.Fatalf("deleted by %q, want bob", svc.deletedBy)
			}
		})
	}
}

func testReservation() *model.Reservation {
	return &model.Reservation{
		ID:             1,
		ReservationUID: "r-1",
		Username:       "alice",
		HotelID:        1,
		Hotel:          &model.Hotel{ID: 1, HotelUID: "h-1", Name: "Ararat Park Hyatt Moscow", Price: 10000},
		Status:         model.ReservationStatusPaid,
		StartDate:      time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 10, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateReservation(t *testing.T) {
	svc := &stubReservationService{
		reservation: testReservation(),
		result:      model.CompensationResult{Status: model.CompensationSucceeded},
	}
	h := NewReservationHandler(svc, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodPost, "/reservation",
		map[string]any{"hotel_id": 1, "start_date": "2024-10-01", "end_date": "2024-10-05"},
		map[string]string{"X-User-Name": "alice"})
	wantStatus(t, res, http.StatusCreated)

	body := decodeBody(t, res)
	if body["reservation_uid"] != "r-1" || body["start_date"] != "2024-10-01" || body["status"] != "PAID" {
		t.Fatalf("body = %v", body)
	}
	if hotel, ok := body["hotel"].(map[string]any); !ok || hotel["hotel_uid"] != "h-1" {
		t.Fatalf("hotel = %v", body["hotel"])
	}
	if svc.createInput.Username != "alice" || svc.createInput.HotelID == nil || *svc.createInput.HotelID != 1 {
		t.Fatalf("input = %+v", svc.createInput)
	}
}

func TestCreateReservation_MissingUser(t *testing.T) {
	h := NewReservationHandler(&stubReservationService{}, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodPost, "/reservation", map[string]any{"hotel_id": 1}, nil)
	wantStatus(t, res, http.StatusBadRequest)
}

func TestCreateReservation_LoyaltyFailureReturnsUpstreamStatus(t *testing.T) {
	svc := &stubReservationService{
		reservation: testReservation(),
		result: model.CompensationResult{
			Status: model.CompensationFailed,
			Err:    &clients.UpstreamError{Service: "loyalty", StatusCode: http.StatusInternalServerError},
		},
	}
	h := NewReservationHandler(svc, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodPost, "/reservation",
		map[string]any{"hotel_id": 1, "start_date": "2024-10-01", "end_date": "2024-10-05"},
		map[string]string{"X-User-Name": "alice"})
	wantStatus(t, res, http.StatusInternalServerError)

	body := decodeBody(t, res)
	if body["compensation"] != "failed" {
		t.Fatalf("compensation = %v, want failed", body["compensation"])
	}
	if rsv, ok := body["reservation"].(map[string]any); !ok || rsv["reservation_uid"] != "r-1" {
		t.Fatalf("reservation = %v", body["reservation"])
	}
}

func TestCreateReservation_UserNotEnrolled(t *testing.T) {
	svc := &stubReservationService{
		err: fmt.Errorf("get loyalty: %w", &clients.UpstreamError{Service: "loyalty", StatusCode: http.StatusNotFound}),
	}
	h := NewReservationHandler(svc, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodPost, "/reservation",
		map[string]any{"hotel_id": 1, "start_date": "2024-10-01", "end_date": "2024-10-05"},
		map[string]string{"X-User-Name": "ghost"})
	wantStatus(t, res, http.StatusNotFound)
}

func TestListReservations(t *testing.T) {
	svc := &stubReservationService{reservations: []model.Reservation{*testReservation()}}
	h := NewReservationHandler(svc, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodGet, "/reservation", nil, map[string]string{"X-User-Name": "alice"})
	wantStatus(t, res, http.StatusOK)

	list, ok := decodeBody(t, res)["reservations"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("reservations = %v", list)
	}
}

func TestCancelReservation(t *testing.T) {
	tests := []struct {
		name   string
		result model.CompensationResult
		err    error
		status int
	}{
		{name: "canceled", result: model.CompensationResult{Status: model.CompensationSucceeded}, status: http.StatusOK},
		{name: "not found", err: repository.ErrReservationNotFound, status: http.StatusNotFound},
		{name: "already canceled", err: repository.ErrReservationCanceled, status: http.StatusConflict},
		{
			name: "loyalty rejected",
			result: model.CompensationResult{
				Status: model.CompensationFailed,
				Err:    &clients.UpstreamError{Service: "loyalty", StatusCode: http.StatusNotFound},
			},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubReservationService{reservation: testReservation(), result: tt.result, err: tt.err}
			h := NewReservationHandler(svc, zap.NewNop(), nil).SetupRouter()

			res := serve(t, h, http.MethodDelete, "/reservations/r-1", nil, nil)
			wantStatus(t, res, tt.status)
		})
	}
}

func TestUpdateReservationStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
	}{
		{name: "updated", body: map[string]any{"status": "CANCELED"}, status: http.StatusOK},
		{name: "missing status", body: map[string]any{}, status: http.StatusBadRequest},
		{name: "unknown status", body: map[string]any{"status": "REFUNDED"}, err: service.ErrValidation, status: http.StatusBadRequest},
		{name: "not found", body: map[string]any{"status": "PAID"}, err: repository.ErrReservationNotFound, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsv := testReservation()
			rsv.Status = model.ReservationStatusCanceled
			h := NewReservationHandler(&stubReservationService{reservation: rsv, err: tt.err}, zap.NewNop(), nil).SetupRouter()

			res := serve(t, h, http.MethodPatch, "/reservations/r-1", tt.body, nil)
			wantStatus(t, res, tt.status)
		})
	}
}

func TestDeleteHotel_InUse(t *testing.T) {
	h := NewReservationHandler(&stubReservationService{err: repository.ErrHotelInUse}, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodDelete, "/hotel/h-1", nil, nil)
	wantStatus(t, res, http.StatusConflict)
}

func TestListHotels_Empty(t *testing.T) {
	h := NewReservationHandler(&stubReservationService{}, zap.NewNop(), nil).SetupRouter()

	res := serve(t, h, http.MethodGet, "/hotel", nil, nil)
	wantStatus(t, res, http.StatusOK)

	if hotels, ok := decodeBody(t, res)["hotels"].([]any); !ok || len(hotels) != 0 {
		t.Fatalf("hotels = %v", hotels)
	}
}

func TestTestRoute(t *testing.T) {
	for _, h := range []http.Handler{
		NewLoyaltyHandler(&stubLoyaltyService{}, zap.NewNop()).SetupRouter(),
		NewPaymentHandler(&stubPaymentService{}, zap.NewNop(), nil).SetupRouter(),
		NewReservationHandler(&stubReservationService{}, zap.NewNop(), nil).SetupRouter(),
	} {
		res := serve(t, h, http.MethodGet, "/test", nil, nil)
		wantStatus(t, res, http.StatusOK)

		if msg := decodeBody(t, res)["message"]; msg != "test route" {
			t.Fatalf("message = %v", msg)
		}
	}
}
