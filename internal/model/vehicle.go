package model

type Vehicle struct {
	ID   string  `gorm:"type:uuid;primaryKey" json:"id"`
	Name string  `gorm:"type:varchar(255);not null" json:"name"`
	Type *string `gorm:"type:varchar(64)" json:"type"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
