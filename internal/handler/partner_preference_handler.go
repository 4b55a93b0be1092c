package handler

import (
	"matchmaking/internal/model"
	"matchmaking/internal/service"
	"matchmaking/pkg/jwt"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
)

// PartnerPreferenceHandler 择偶偏好，按当前账号邮箱存取
type PartnerPreferenceHandler struct {
	prefs *service.PartnerPreferenceService
	users *service.UserService
}

func NewPartnerPreferenceHandler(prefs *service.PartnerPreferenceService, users *service.UserService) *PartnerPreferenceHandler {
	return &PartnerPreferenceHandler{prefs: prefs, users: users}
}

// Save 新增或覆盖
func (h *PartnerPreferenceHandler) Save(c *gin.Context) {
	var req struct {
		Age             string `json:"age" binding:"required,max=50"`
		MaritalStatus   string `json:"marital_status" binding:"required,max=250"`
		BodyType        string `json:"body_type" binding:"max=100"`
		Complexion      string `json:"complexion" binding:"max=250"`
		Height          string `json:"height" binding:"max=50"`
		EatingHabit     string `json:"eating_habit" binding:"max=50"`
		Manglik         string `json:"manglik" binding:"max=20"`
		Religion        string `json:"religion" binding:"required,max=50"`
		Caste           string `json:"caste" binding:"required,max=250"`
		MarryAnyCaste   string `json:"marry_any_caste"`
		MotherTongue    string `json:"mother_tongue" binding:"max=100"`
		Education       string `json:"education" binding:"max=250"`
		Occupation      string `json:"occupation" binding:"required,max=250"`
		ResidingCountry string `json:"residing_country" binding:"required,max=150"`
		ResidingState   string `json:"residing_state" binding:"max=200"`
		ResidingCity    string `json:"residing_city" binding:"max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	email, ok := h.callerEmail(c)
	if !ok {
		return
	}
	pref, err := h.prefs.Save(c.Request.Context(), &model.PartnerPreference{
		Email:           email,
		Age:             req.Age,
		MaritalStatus:   req.MaritalStatus,
		BodyType:        req.BodyType,
		Complexion:      req.Complexion,
		Height:          req.Height,
		EatingHabit:     req.EatingHabit,
		Manglik:         req.Manglik,
		Religion:        req.Religion,
		Caste:           req.Caste,
		MarryAnyCaste:   req.MarryAnyCaste,
		MotherTongue:    req.MotherTongue,
		Education:       req.Education,
		Occupation:      req.Occupation,
		ResidingCountry: req.ResidingCountry,
		ResidingState:   req.ResidingState,
		ResidingCity:    req.ResidingCity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "择偶偏好已保存", pref)
}

// Get 获取择偶偏好
func (h *PartnerPreferenceHandler) Get(c *gin.Context) {
	email, ok := h.callerEmail(c)
	if !ok {
		return
	}
	pref, err := h.prefs.Get(c.Request.Context(), email)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, pref)
}

// Delete 删除择偶偏好
func (h *PartnerPreferenceHandler) Delete(c *gin.Context) {
	email, ok := h.callerEmail(c)
	if !ok {
		return
	}
	if err := h.prefs.Delete(c.Request.Context(), email); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "择偶偏好已删除", nil)
}

func (h *PartnerPreferenceHandler) callerEmail(c *gin.Context) (string, bool) {
	user, err := h.users.GetUser(c.Request.Context(), jwt.GetUserIDUint(c))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return user.Email, true
}
