package response

import (
	"time"

	"matchmaking/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}

// UserInfo 用户信息（隐藏敏感字段）
type UserInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	ProfileID string `json:"profile_id,omitempty"`
	LastLogin string `json:"last_login,omitempty"`
	CreatedAt string `json:"created_at"`
}

// FilterUserInfo 过滤用户信息，隐藏敏感字段
func FilterUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}

	info := &UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: formatTime(user.CreatedAt),
	}
	if user.ProfileID != nil {
		info.ProfileID = *user.ProfileID
	}
	if user.LastLogin != nil {
		info.LastLogin = formatTime(*user.LastLogin)
	}
	return info
}

// LoginResponse 登录响应
type LoginResponse struct {
	User        *UserInfo `json:"user"`
	AccessToken string    `json:"access_token"`
}

// ProfileInfo 资料信息
type ProfileInfo struct {
	ProfileID     string   `json:"profile_id"`
	CreatedFor    string   `json:"created_for"`
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	FullName      string   `json:"full_name"`
	Email         string   `json:"email"`
	Sex           string   `json:"sex"`
	DOB           string   `json:"dob,omitempty"`
	MaritalStatus string   `json:"marital_status"`
	Religion      string   `json:"religion"`
	Caste         string   `json:"caste"`
	SubCaste      string   `json:"sub_caste"`
	MotherTongue  string   `json:"mother_tongue"`
	Star          string   `json:"star"`
	Raashi        string   `json:"raashi"`
	Manglik       string   `json:"manglik"`
	Height        string   `json:"height"`
	Education     string   `json:"education"`
	Occupation    string   `json:"occupation"`
	WorkingWith   string   `json:"working_with"`
	AnnualIncome  string   `json:"annual_income"`
	EatingHabit   string   `json:"eating_habit"`
	Smoking       string   `json:"smoking"`
	Drinking      string   `json:"drinking"`
	City          string   `json:"city"`
	State         string   `json:"state"`
	Country       string   `json:"country"`
	Mobile        string   `json:"mobile,omitempty"`
	About         string   `json:"about"`
	PaidMember    string   `json:"paid_member"`
	Photos        []string `json:"photos"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// FilterProfileInfo 转换资料，photos 为可访问的照片URL
func FilterProfileInfo(p *model.Profile, photos []string) *ProfileInfo {
	if p == nil {
		return nil
	}
	if photos == nil {
		photos = []string{}
	}
	info := &ProfileInfo{
		ProfileID:     p.ProfileID,
		CreatedFor:    p.CreatedFor,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		FullName:      p.FullName(),
		Email:         p.Email,
		Sex:           p.Sex,
		MaritalStatus: p.MaritalStatus,
		Religion:      p.Religion,
		Caste:         p.Caste,
		SubCaste:      p.SubCaste,
		MotherTongue:  p.MotherTongue,
		Star:          p.Star,
		Raashi:        p.Raashi,
		Manglik:       p.Manglik,
		Height:        p.Height,
		Education:     p.Education,
		Occupation:    p.Occupation,
		WorkingWith:   p.WorkingWith,
		AnnualIncome:  p.AnnualIncome,
		EatingHabit:   p.EatingHabit,
		Smoking:       p.Smoking,
		Drinking:      p.Drinking,
		City:          p.City,
		State:         p.State,
		Country:       p.Country,
		Mobile:        p.Mobile,
		About:         p.About,
		PaidMember:    p.PaidMember,
		Photos:        photos,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
	if p.DOB != nil {
		info.DOB = p.DOB.Format("2006-01-02")
	}
	return info
}

// InterestInfo 意向信息
type InterestInfo struct {
	ID              uint   `json:"id"`
	FromProfileID   string `json:"from_profile_id"`
	ToProfileID     string `json:"to_profile_id"`
	Status          string `json:"status"`
	RequestMessage  string `json:"request_message"`
	ResponseMessage string `json:"response_message"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// FilterInterestInfo 转换意向
func FilterInterestInfo(it *model.Interest) *InterestInfo {
	if it == nil {
		return nil
	}
	return &InterestInfo{
		ID:              it.ID,
		FromProfileID:   it.FromProfileID,
		ToProfileID:     it.ToProfileID,
		Status:          string(it.Status),
		RequestMessage:  it.RequestMessage,
		ResponseMessage: it.ResponseMessage,
		CreatedAt:       formatTime(it.CreatedAt),
		UpdatedAt:       formatTime(it.UpdatedAt),
	}
}

// FilterInterestList 批量转换意向
func FilterInterestList(items []model.Interest) []*InterestInfo {
	out := make([]*InterestInfo, 0, len(items))
	for i := range items {
		out = append(out, FilterInterestInfo(&items[i]))
	}
	return out
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID                uint   `json:"id"`
	SenderProfileID   string `json:"sender_profile_id"`
	ReceiverProfileID string `json:"receiver_profile_id"`
	Text              string `json:"text"`
	CreatedAt         string `json:"created_at"`
}

// FilterMessageInfo 过滤消息信息
func FilterMessageInfo(message *model.Message) *MessageResponse {
	if message == nil {
		return nil
	}

	return &MessageResponse{
		ID:                message.ID,
		SenderProfileID:   message.SenderProfileID,
		ReceiverProfileID: message.ReceiverProfileID,
		Text:              message.Text,
		CreatedAt:         formatTime(message.CreatedAt),
	}
}
