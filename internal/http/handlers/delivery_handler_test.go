package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDeliveryHandler_Deliver_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DeliveryHandler{deliveries: nil}
	r.POST("/conversations/:id/deliveries", handler.Deliver)

	req, _ := http.NewRequest("POST", "/conversations/0d9bbd4e-54ec-4a0f-9d9a-0af7cfa0a0d1/deliveries", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeliveryHandler_Deliver_InvalidProductID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DeliveryHandler{deliveries: nil}
	r.POST("/conversations/:id/deliveries", withUser(handler.Deliver))

	body := strings.NewReader(`{"product_id": "not-a-uuid", "price": 10}`)
	req, _ := http.NewRequest("POST", "/conversations/0d9bbd4e-54ec-4a0f-9d9a-0af7cfa0a0d1/deliveries", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeliveryHandler_MarkPurchased_InvalidDeliveryID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &DeliveryHandler{deliveries: nil}
	r.POST("/conversations/:id/deliveries/:deliveryID/purchase", withUser(handler.MarkPurchased))

	req, _ := http.NewRequest("POST", "/conversations/0d9bbd4e-54ec-4a0f-9d9a-0af7cfa0a0d1/deliveries/bad/purchase", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceRequestHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ServiceRequestHandler{requests: nil}
	r.POST("/conversations/:id/service-requests", handler.Create)

	req, _ := http.NewRequest("POST", "/conversations/0d9bbd4e-54ec-4a0f-9d9a-0af7cfa0a0d1/service-requests", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceRequestHandler_Accept_InvalidDeadline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ServiceRequestHandler{requests: nil}
	r.POST("/conversations/:id/service-requests/:requestID/accept", withUser(handler.Accept))

	body := strings.NewReader(`{"deadline_at": "не дата"}`)
	req, _ := http.NewRequest(
		"POST",
		"/conversations/0d9bbd4e-54ec-4a0f-9d9a-0af7cfa0a0d1/service-requests/58b7ab0f-6d2f-4f2e-a59c-2b8f4f1ad2aa/accept",
		body,
	)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
