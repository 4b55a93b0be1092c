package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/internal/service"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
)

// InterestAPI 意向状态机，由 service.InterestService 实现
type InterestAPI interface {
	ExpressInterest(ctx context.Context, from, to, message string) (*model.Interest, service.Outcome, error)
	RespondToInterest(ctx context.Context, interestID uint, responder string, status model.InterestStatus, message string) (*model.Interest, error)
	WithdrawInterest(ctx context.Context, interestID uint, requester string) error
	FindInterestByPair(ctx context.Context, from, to string) (*model.Interest, bool, error)
	FindMutualMatches(ctx context.Context, profileID string) ([]string, error)
	ListReceived(ctx context.Context, profileID string, status model.InterestStatus, page repository.Page) ([]model.Interest, int64, error)
	ListSent(ctx context.Context, profileID string, status model.InterestStatus, page repository.Page) ([]model.Interest, int64, error)
	ListAll(ctx context.Context, status model.InterestStatus, page repository.Page) ([]model.Interest, int64, error)
}

type InterestHandler struct {
	interests InterestAPI
	profiles  CallerProfiles
}

func NewInterestHandler(interests InterestAPI, profiles CallerProfiles) *InterestHandler {
	return &InterestHandler{interests: interests, profiles: profiles}
}

// Express 表达意向，发起方为当前登录用户的资料
func (h *InterestHandler) Express(c *gin.Context) {
	var req struct {
		FromProfileID string `json:"interest_from_pid"`
		ToProfileID   string `json:"interested_in_pid" binding:"required"`
		Message       string `json:"interest_msg"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	from, ok := h.actingProfile(c, req.FromProfileID)
	if !ok {
		return
	}

	interest, outcome, err := h.interests.ExpressInterest(c.Request.Context(), from, req.ToProfileID, strings.TrimSpace(req.Message))
	if err != nil {
		if errors.Is(err, service.ErrConflict) && interest != nil {
			response.ErrorWithData(c, http.StatusConflict, "已存在进行中的意向", response.FilterInterestInfo(interest))
			return
		}
		writeError(c, err)
		return
	}

	if outcome == service.OutcomeReactivated {
		response.SuccessWithMessage(c, "意向已重新发起", response.FilterInterestInfo(interest))
		return
	}
	response.Created(c, "意向已发送", response.FilterInterestInfo(interest))
}

// Respond 接受或拒绝收到的意向
func (h *InterestHandler) Respond(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status  string `json:"interest_status" binding:"required"`
		Message string `json:"response_msg"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	status, valid := parseStatus(req.Status)
	if !valid || !status.IsResponse() {
		response.BadRequest(c, "interest_status 只能为 accepted 或 declined")
		return
	}
	responder, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}

	interest, err := h.interests.RespondToInterest(c.Request.Context(), id, responder, status, strings.TrimSpace(req.Message))
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "已回复意向", response.FilterInterestInfo(interest))
}

// Withdraw 撤回自己发出的意向
func (h *InterestHandler) Withdraw(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		RequesterProfileID string `json:"requester_profile_id"`
	}
	// 请求体可选
	_ = c.ShouldBindJSON(&req)

	requester, ok := h.actingProfile(c, req.RequesterProfileID)
	if !ok {
		return
	}
	if err := h.interests.WithdrawInterest(c.Request.Context(), id, requester); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "意向已撤回", nil)
}

// SearchPair 按发起方和接收方查找意向
func (h *InterestHandler) SearchPair(c *gin.Context) {
	from, to := strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to"))
	if from == "" || to == "" {
		response.BadRequest(c, "from 和 to 均为必填")
		return
	}
	interest, found, err := h.interests.FindInterestByPair(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	if !found {
		response.NotFound(c, "意向不存在")
		return
	}
	response.Success(c, response.FilterInterestInfo(interest))
}

// Mutual 互相匹配的资料ID
func (h *InterestHandler) Mutual(c *gin.Context) {
	matches, err := h.interests.FindMutualMatches(c.Request.Context(), c.Param("pid"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, gin.H{"profile_id": c.Param("pid"), "matches": matches})
}

// Received 收到的意向
func (h *InterestHandler) Received(c *gin.Context) {
	h.listFor(c, h.interests.ListReceived)
}

// Sent 发出的意向
func (h *InterestHandler) Sent(c *gin.Context) {
	h.listFor(c, h.interests.ListSent)
}

// ListAll 全部意向（管理员）
func (h *InterestHandler) ListAll(c *gin.Context) {
	status, valid := parseStatus(c.Query("status"))
	if !valid {
		response.BadRequest(c, "无效的status")
		return
	}
	page := pageQuery(c)
	items, total, err := h.interests.ListAll(c.Request.Context(), status, page)
	if err != nil {
		writeError(c, err)
		return
	}
	paged(c, response.FilterInterestList(items), total, page)
}

type interestLister func(ctx context.Context, profileID string, status model.InterestStatus, page repository.Page) ([]model.Interest, int64, error)

// listFor 仅本人或管理员可查看某资料的意向列表，默认只看 pending
func (h *InterestHandler) listFor(c *gin.Context, list interestLister) {
	pid := c.Param("pid")
	if !isAdmin(c) {
		own, ok := callerProfileID(c, h.profiles)
		if !ok {
			return
		}
		if own != pid {
			response.Forbidden(c, "只能查看自己的意向")
			return
		}
	}

	raw := c.DefaultQuery("status", string(model.InterestPending))
	status, valid := parseStatus(raw)
	if !valid {
		response.BadRequest(c, "无效的status")
		return
	}
	page := pageQuery(c)
	items, total, err := list(c.Request.Context(), pid, status, page)
	if err != nil {
		writeError(c, err)
		return
	}
	paged(c, response.FilterInterestList(items), total, page)
}

// actingProfile 确定本次操作代表的资料
// 请求中未指定时使用当前用户的资料，指定了他人资料时仅管理员可以代为操作
func (h *InterestHandler) actingProfile(c *gin.Context, requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	if requested != "" && isAdmin(c) {
		return requested, true
	}
	own, ok := callerProfileID(c, h.profiles)
	if !ok {
		return "", false
	}
	if requested != "" && requested != own {
		response.Forbidden(c, "只能以自己的资料操作")
		return "", false
	}
	return own, true
}
