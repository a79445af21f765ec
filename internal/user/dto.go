package user

// LoginPayload body of POST /login.
// swagger:model LoginPayload
type LoginPayload struct {
	Email    string `json:"email"    example:"ana@example.com"`
	Password string `json:"password" example:"s3cret"`
}

// RegisterPayload body of POST /register.
// swagger:model RegisterPayload
type RegisterPayload struct {
	Name     string `json:"name"     example:"Ana"`
	Email    string `json:"email"    example:"ana@example.com"`
	Password string `json:"password" example:"s3cret"`
	TaxID    string `json:"tax_id"   example:"12345678901"`
}

// SessionResponse identity of the authenticated or registered user.
// swagger:model SessionResponse
type SessionResponse struct {
	UserID int64 `json:"user_id" example:"1"`
}
