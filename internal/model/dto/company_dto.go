package dto

type CreateCompanyRequest struct {
	Name    string `json:"name" binding:"required,min=2,max=150"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,max=30"`
	Address string `json:"address" binding:"omitempty,max=255"`
}

type UpdateCompanyRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=2,max=150"`
	Phone   *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	Address *string `json:"address,omitempty" binding:"omitempty,max=255"`
	Status  *string `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
}

// CompanyOverview combines the company row with its subscription state for
// the super-admin dashboard.
type CompanyOverview struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	UserCount int64  `json:"user_count"`
	Plan      string `json:"plan,omitempty"`
	PlanState string `json:"plan_state,omitempty"`
	UserLimit int    `json:"user_limit,omitempty"`
}
