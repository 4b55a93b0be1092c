package handler

import (
	"matchmaking/internal/service"
	"matchmaking/pkg/jwt"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	type req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Name     string `json:"name"`
		Phone    string `json:"phone"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Name:     r.Name,
		Phone:    r.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, "注册成功", &response.LoginResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// Login 用户登录
func (h *UserHandler) Login(c *gin.Context) {
	type req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	user, token, err := h.service.Login(c.Request.Context(), r.Email, r.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", &response.LoginResponse{
		User:        response.FilterUserInfo(user),
		AccessToken: token,
	})
}

// ForgotPassword 发送重置密码验证码
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	type req struct {
		Email string `json:"email" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.RequestOTP(c.Request.Context(), r.Email); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "验证码已发送", nil)
}

// VerifyOTP 校验验证码
func (h *UserHandler) VerifyOTP(c *gin.Context) {
	type req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.VerifyOTP(c.Request.Context(), r.Email, r.OTP); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "验证码有效", nil)
}

// ResetPassword 使用验证码重置密码
func (h *UserHandler) ResetPassword(c *gin.Context) {
	type req struct {
		Email       string `json:"email" binding:"required"`
		OTP         string `json:"otp" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), r.Email, r.OTP, r.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已重置", nil)
}

// Me 当前登录账号
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), jwt.GetUserIDUint(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// ChangePassword 修改密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	type req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.ChangePassword(c.Request.Context(), jwt.GetUserIDUint(c), r.CurrentPassword, r.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已修改", nil)
}
