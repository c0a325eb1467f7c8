package api

// API request and response bodies. Field names follow the wire format the
// web and mobile clients already speak.

// StatusUpdateRequest is the optional JSON body of POST /api/order/{id}/status.
// The status query parameter takes precedence.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}

// PlaceOrderResponse is returned by POST /api/order
type PlaceOrderResponse struct {
	Status  string `json:"status"` // "Order Placed"
	OrderID string `json:"order_id"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// HealthResponse reports liveness plus current connection counts
type HealthResponse struct {
	Status  string `json:"status"`
	Vendors int    `json:"vendors"`
	Users   int    `json:"users"`
}

// ErrorResponse is returned for all errors
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
