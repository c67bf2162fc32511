package dto

type CreateUserRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=64"`
	Role      string `json:"role" binding:"omitempty,oneof=admin user"`
	Phone     string `json:"phone" binding:"omitempty,max=30"`
	CompanyID int64  `json:"company_id" binding:"required"`
}

type UpdateUserRequest struct {
	Name   *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Phone  *string `json:"phone,omitempty" binding:"omitempty,max=30"`
	Role   *string `json:"role,omitempty" binding:"omitempty,oneof=admin user"`
	Status *string `json:"status,omitempty" binding:"omitempty,oneof=active inactive"`
}

type ListUsersQuery struct {
	CompanyID int64  `form:"company_id"`
	Status    string `form:"status" binding:"omitempty,oneof=active inactive"`
	Page      int    `form:"page,default=1" binding:"min=1"`
	PageSize  int    `form:"page_size,default=20" binding:"min=1,max=100"`
}
