package model

import (
	"time"
)

// Profile 征婚资料
// ProfileID 为对外暴露的不透明标识（MP 前缀），意向、收藏、聊天均以此引用
// 仅保留可检索的字段，其余自由文本合并到 About
type Profile struct {
	ID            uint       `gorm:"primaryKey"`
	ProfileID     string     `gorm:"type:varchar(50);not null;uniqueIndex;comment:资料ID"`
	UserID        uint       `gorm:"not null;uniqueIndex;comment:创建者账号ID"`
	CreatedFor    string     `gorm:"type:varchar(16);not null;comment:为谁创建"`
	FirstName     string     `gorm:"type:varchar(150);not null;comment:名"`
	LastName      string     `gorm:"type:varchar(150);not null;comment:姓"`
	Email         string     `gorm:"type:varchar(200);not null;uniqueIndex;comment:联系邮箱"`
	Sex           string     `gorm:"type:varchar(1);index;comment:性别(M/F)"`
	DOB           *time.Time `gorm:"column:dob;index;comment:出生日期"`
	MaritalStatus string     `gorm:"type:varchar(16);comment:婚姻状况"`
	Religion      string     `gorm:"type:varchar(50);index:idx_profile_community;comment:宗教"`
	Caste         string     `gorm:"type:varchar(100);index:idx_profile_community;comment:种姓"`
	SubCaste      string     `gorm:"type:varchar(50);comment:子种姓"`
	MotherTongue  string     `gorm:"type:varchar(50);comment:母语"`
	Star          string     `gorm:"type:varchar(250);comment:星宿"`
	Raashi        string     `gorm:"type:varchar(50);comment:星座"`
	Manglik       string     `gorm:"type:varchar(1);comment:火星冲(Y/N/U)"`
	Height        string     `gorm:"type:varchar(50);default:'0';comment:身高"`
	Education     string     `gorm:"type:varchar(250);comment:学历"`
	Occupation    string     `gorm:"type:varchar(250);comment:职业"`
	WorkingWith   string     `gorm:"type:varchar(150);comment:工作单位"`
	AnnualIncome  string     `gorm:"type:varchar(11);default:'0';comment:年收入"`
	EatingHabit   string     `gorm:"type:varchar(20);comment:饮食习惯"`
	Smoking       string     `gorm:"type:varchar(1);comment:吸烟(Y/N/U)"`
	Drinking      string     `gorm:"type:varchar(1);comment:饮酒(Y/N/U)"`
	City          string     `gorm:"type:varchar(200);index:idx_profile_location;comment:居住城市"`
	State         string     `gorm:"type:varchar(200);index:idx_profile_location;comment:居住省/州"`
	Country       string     `gorm:"type:varchar(150);index:idx_profile_location;comment:居住国家"`
	Mobile        string     `gorm:"type:varchar(20);comment:手机号"`
	About         string     `gorm:"type:text;comment:自我介绍"`
	PaidMember    string     `gorm:"type:varchar(1);default:'N';comment:是否付费会员"`
	CreatedAt     time.Time  `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time  `gorm:"index;comment:更新时间"`
}

func (Profile) TableName() string { return "profile" }

// FullName 全名
func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// ProfilePhoto 资料照片，实体文件存放在对象存储中
type ProfilePhoto struct {
	ID          uint      `gorm:"primaryKey"`
	ProfileID   string    `gorm:"type:varchar(50);not null;index;comment:资料ID"`
	ObjectKey   string    `gorm:"type:varchar(255);not null;uniqueIndex;comment:对象存储Key"`
	ContentType string    `gorm:"type:varchar(64);comment:MIME类型"`
	Size        int64     `gorm:"comment:文件大小(字节)"`
	CreatedAt   time.Time `gorm:"comment:上传时间"`
}

func (ProfilePhoto) TableName() string { return "profile_photo" }

// ProfileViewLog 资料浏览记录
type ProfileViewLog struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ViewerProfileID string    `gorm:"type:varchar(50);not null;index;comment:浏览者资料ID" json:"viewer_profile_id"`
	ViewedProfileID string    `gorm:"type:varchar(50);not null;index;comment:被浏览资料ID" json:"viewed_profile_id"`
	ViewedAt        time.Time `gorm:"autoCreateTime;index;comment:浏览时间" json:"viewed_at"`
}

func (ProfileViewLog) TableName() string { return "profile_view_log" }
