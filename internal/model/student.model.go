package model

type Student struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	NIS     string `json:"nis"`
	Name    string `json:"name"`
	Class   string `json:"class"`
	Balance uint   `json:"balance"`
}

func (Student) TableName() string { return "students" }

type StudentFilter struct {
	Class  *string
	Search *string // matches name or NIS
	Limit  int
	Offset int
}
