package schemas

import "time"

type Document struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DocumentSummary struct {
	ID             string    `json:"id"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ContentPreview string    `json:"content_preview"`
}

type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
}

type User struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type UserListResponse struct {
	Users []User `json:"users"`
}

type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

type PermissionListResponse struct {
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
}

type ServerStatusResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}
