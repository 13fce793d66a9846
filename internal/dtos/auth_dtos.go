package dtos

// ----------------------
// OTP
// ----------------------

type RequestOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
}
type RequestOTPResponse struct {
	Message string `json:"message"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Code  string `json:"code" validate:"required,numeric,min=4,max=10"`
}
type VerifyOTPResponse struct {
	Success          bool   `json:"success"`
	UserID           string `json:"user_id"`
	RequiresPinSetup bool   `json:"requires_pin_setup"`
}

// ----------------------
// PIN
// ----------------------

type SetupPinRequest struct {
	Pin string `json:"pin" validate:"required,numeric"`
}
type SetupPinResponse struct {
	Message string `json:"message"`
}

type LoginPinRequest struct {
	Phone string `json:"phone" validate:"required,e164"`
	Pin   string `json:"pin" validate:"required,numeric"`
}
type LoginPinResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id"`
}

// ----------------------
// Session
// ----------------------

type LogoutResponse struct {
	Success bool `json:"success"`
}

type HealthCheckResponse struct {
	Status string `json:"status"`
}

type SessionResponse struct {
	Authenticated    bool   `json:"authenticated"`
	UserID           string `json:"user_id,omitempty"`
	Phone            string `json:"phone,omitempty"`
	RequiresPinSetup bool   `json:"requires_pin_setup,omitempty"`
}
