package dto

type CreateReportRequest struct {
	Title       string `json:"title" binding:"required,min=2,max=200"`
	Description string `json:"description" binding:"omitempty,max=2000"`
	EmbedURL    string `json:"embed_url" binding:"required,url"`
	CompanyID   int64  `json:"company_id" binding:"required"`
}

type UpdateReportRequest struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,min=2,max=200"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	EmbedURL    *string `json:"embed_url,omitempty" binding:"omitempty,url"`
}
