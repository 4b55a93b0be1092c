package model

import (
	"time"
)

// PartnerPreference 择偶偏好，按邮箱唯一
type PartnerPreference struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Email           string    `gorm:"type:varchar(200);not null;uniqueIndex;comment:邮箱" json:"email"`
	Age             string    `gorm:"type:varchar(50);not null;comment:年龄范围" json:"age"`
	MaritalStatus   string    `gorm:"type:varchar(250);not null;comment:婚姻状况" json:"marital_status"`
	BodyType        string    `gorm:"type:varchar(100);comment:体型" json:"body_type"`
	Complexion      string    `gorm:"type:varchar(250);comment:肤色" json:"complexion"`
	Height          string    `gorm:"type:varchar(50);comment:身高" json:"height"`
	EatingHabit     string    `gorm:"type:varchar(50);comment:饮食习惯" json:"eating_habit"`
	Manglik         string    `gorm:"type:varchar(20);comment:火星冲" json:"manglik"`
	Religion        string    `gorm:"type:varchar(50);not null;comment:宗教" json:"religion"`
	Caste           string    `gorm:"type:varchar(250);not null;comment:种姓" json:"caste"`
	MarryAnyCaste   string    `gorm:"type:varchar(1);not null;default:'U';comment:是否接受任意种姓(Y/N/U)" json:"marry_any_caste"`
	MotherTongue    string    `gorm:"type:varchar(100);comment:母语" json:"mother_tongue"`
	Education       string    `gorm:"type:varchar(250);comment:学历" json:"education"`
	Occupation      string    `gorm:"type:varchar(250);not null;comment:职业" json:"occupation"`
	ResidingCountry string    `gorm:"type:varchar(150);not null;comment:居住国家" json:"residing_country"`
	ResidingState   string    `gorm:"type:varchar(200);comment:居住省/州" json:"residing_state"`
	ResidingCity    string    `gorm:"type:varchar(200);comment:居住城市" json:"residing_city"`
	CreatedAt       time.Time `gorm:"comment:创建时间" json:"created_at"`
	UpdatedAt       time.Time `gorm:"comment:更新时间" json:"updated_at"`
}

func (PartnerPreference) TableName() string { return "partner_preference" }
