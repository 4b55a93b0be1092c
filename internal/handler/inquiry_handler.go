package handler

import (
	"matchmaking/internal/service"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
)

type InquiryHandler struct {
	inquiries *service.InquiryService
}

func NewInquiryHandler(inquiries *service.InquiryService) *InquiryHandler {
	return &InquiryHandler{inquiries: inquiries}
}

// Create 提交咨询
func (h *InquiryHandler) Create(c *gin.Context) {
	var req struct {
		InquiryFrom string `json:"inquiry_from" binding:"required"`
		InquiryFor  string `json:"inquiry_for" binding:"required"`
		Message     string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	inquiry, err := h.inquiries.Create(c.Request.Context(), req.InquiryFrom, req.InquiryFor, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, "咨询已提交", inquiry)
}

// List 咨询列表，可按 from / for 过滤
func (h *InquiryHandler) List(c *gin.Context) {
	page := pageQuery(c)
	items, total, err := h.inquiries.List(c.Request.Context(), c.Query("from"), c.Query("for"), page)
	if err != nil {
		writeError(c, err)
		return
	}
	paged(c, items, total, page)
}

// Delete 删除咨询
func (h *InquiryHandler) Delete(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.inquiries.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "咨询已删除", nil)
}
