package handler

import (
	"matchmaking/internal/service"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
)

type ShortlistHandler struct {
	shortlist *service.ShortlistService
	profiles  CallerProfiles
}

func NewShortlistHandler(shortlist *service.ShortlistService, profiles CallerProfiles) *ShortlistHandler {
	return &ShortlistHandler{shortlist: shortlist, profiles: profiles}
}

// Add 收藏资料
func (h *ShortlistHandler) Add(c *gin.Context) {
	var req struct {
		ShortlistedPID string `json:"shortlisted_pid" binding:"required,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	owner, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}
	item, err := h.shortlist.Add(c.Request.Context(), owner, req.ShortlistedPID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, "已收藏", item)
}

// Remove 取消收藏
func (h *ShortlistHandler) Remove(c *gin.Context) {
	owner, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}
	if err := h.shortlist.Remove(c.Request.Context(), owner, c.Param("pid")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已取消收藏", nil)
}

// List 我的收藏
func (h *ShortlistHandler) List(c *gin.Context) {
	owner, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}
	page := pageQuery(c)
	entries, total, err := h.shortlist.List(c.Request.Context(), owner, page)
	if err != nil {
		writeError(c, err)
		return
	}

	type item struct {
		ShortlistedPID string                `json:"shortlisted_pid"`
		ShortlistedAt  string                `json:"shortlisted_at"`
		Profile        *response.ProfileInfo `json:"profile"`
	}
	items := make([]item, 0, len(entries))
	for _, e := range entries {
		items = append(items, item{
			ShortlistedPID: e.Item.ShortlistedPID,
			ShortlistedAt:  e.Item.ShortlistedAt.Format("2006-01-02 15:04:05"),
			Profile:        response.FilterProfileInfo(e.Profile, nil),
		})
	}
	paged(c, items, total, page)
}
