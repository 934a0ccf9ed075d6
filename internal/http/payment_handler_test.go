package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/gateway"
)

type SessionsMock struct {
	completed *domain.PaymentConfirmation
	dismissed string
	err       error
}

func (s *SessionsMock) Complete(_ string, conf domain.PaymentConfirmation) error {
	if s.err != nil {
		return s.err
	}
	s.completed = &conf
	return nil
}

func (s *SessionsMock) Dismiss(gatewayOrderID string) error {
	if s.err != nil {
		return s.err
	}
	s.dismissed = gatewayOrderID
	return nil
}

func TestCallback_Accepted(t *testing.T) {
	sessionsMock := &SessionsMock{}
	handler := NewPaymentHandler(sessionsMock)

	body, _ := json.Marshal(PaymentCallbackDTO{
		GatewayOrderID:   "order_rzp_1",
		GatewayPaymentID: "pay_rzp_77",
		GatewaySignature: "sig_abc",
	})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/", bytes.NewReader(body))

	handler.Callback(recorder, request)

	if recorder.Code != http.StatusAccepted {
		t.Errorf("Expected status code %d, got %d", http.StatusAccepted, recorder.Code)
	}
	if sessionsMock.completed == nil {
		t.Fatal("Expected the session to be completed")
	}
	if sessionsMock.completed.GatewaySignature != "sig_abc" {
		t.Errorf("Expected signature sig_abc, got %s", sessionsMock.completed.GatewaySignature)
	}
}

func TestCallback_MissingFields(t *testing.T) {
	handler := NewPaymentHandler(&SessionsMock{})

	body, _ := json.Marshal(PaymentCallbackDTO{GatewayOrderID: "order_rzp_1"})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/", bytes.NewReader(body))

	handler.Callback(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestCallback_UnknownSession(t *testing.T) {
	handler := NewPaymentHandler(&SessionsMock{err: gateway.ErrSessionNotFound})

	body, _ := json.Marshal(PaymentCallbackDTO{
		GatewayOrderID:   "order_rzp_unknown",
		GatewayPaymentID: "pay_rzp_77",
		GatewaySignature: "sig_abc",
	})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/", bytes.NewReader(body))

	handler.Callback(recorder, request)

	if recorder.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestDismiss_Accepted(t *testing.T) {
	sessionsMock := &SessionsMock{}
	handler := NewPaymentHandler(sessionsMock)

	body, _ := json.Marshal(DismissDTO{GatewayOrderID: "order_rzp_1"})
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/", bytes.NewReader(body))

	handler.Dismiss(recorder, request)

	if recorder.Code != http.StatusAccepted {
		t.Errorf("Expected status code %d, got %d", http.StatusAccepted, recorder.Code)
	}
	if sessionsMock.dismissed != "order_rzp_1" {
		t.Errorf("Expected dismissal of order_rzp_1, got %q", sessionsMock.dismissed)
	}
}

func TestDismiss_MissingOrderID(t *testing.T) {
	handler := NewPaymentHandler(&SessionsMock{})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("POST", "/", bytes.NewReader([]byte(`{}`)))

	handler.Dismiss(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}
