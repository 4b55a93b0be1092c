package handler

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/internal/service"
	"matchmaking/pkg/jwt"
	"matchmaking/pkg/response"

	"github.com/gin-gonic/gin"
)

// OnlineChecker 在线状态查询，由 redis.PresenceStore 实现
type OnlineChecker interface {
	IsOnline(ctx context.Context, profileID string) (bool, error)
}

type ProfileHandler struct {
	profiles *service.ProfileService
	presence OnlineChecker
}

// NewProfileHandler presence 可为 nil，此时在线状态恒为 false
func NewProfileHandler(profiles *service.ProfileService, presence OnlineChecker) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, presence: presence}
}

type profileRequest struct {
	CreatedFor    string `json:"created_for"`
	FirstName     string `json:"first_name" binding:"required,max=150"`
	LastName      string `json:"last_name" binding:"required,max=150"`
	Email         string `json:"email" binding:"required,max=200"`
	Sex           string `json:"sex" binding:"required"`
	DOB           string `json:"dob"`
	MaritalStatus string `json:"marital_status"`
	Religion      string `json:"religion" binding:"max=50"`
	Caste         string `json:"caste" binding:"max=100"`
	SubCaste      string `json:"sub_caste" binding:"max=50"`
	MotherTongue  string `json:"mother_tongue" binding:"max=50"`
	Star          string `json:"star" binding:"max=250"`
	Raashi        string `json:"raashi" binding:"max=50"`
	Manglik       string `json:"manglik"`
	Height        string `json:"height" binding:"max=50"`
	Education     string `json:"education" binding:"max=250"`
	Occupation    string `json:"occupation" binding:"max=250"`
	WorkingWith   string `json:"working_with" binding:"max=150"`
	AnnualIncome  string `json:"annual_income" binding:"max=11"`
	EatingHabit   string `json:"eating_habit" binding:"max=20"`
	Smoking       string `json:"smoking"`
	Drinking      string `json:"drinking"`
	City          string `json:"city" binding:"max=200"`
	State         string `json:"state" binding:"max=200"`
	Country       string `json:"country" binding:"max=150"`
	Mobile        string `json:"mobile" binding:"max=20"`
	About         string `json:"about"`
}

func (r profileRequest) toInput() (service.ProfileInput, bool) {
	in := service.ProfileInput{
		CreatedFor:    r.CreatedFor,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Sex:           r.Sex,
		MaritalStatus: r.MaritalStatus,
		Religion:      r.Religion,
		Caste:         r.Caste,
		SubCaste:      r.SubCaste,
		MotherTongue:  r.MotherTongue,
		Star:          r.Star,
		Raashi:        r.Raashi,
		Manglik:       r.Manglik,
		Height:        r.Height,
		Education:     r.Education,
		Occupation:    r.Occupation,
		WorkingWith:   r.WorkingWith,
		AnnualIncome:  r.AnnualIncome,
		EatingHabit:   r.EatingHabit,
		Smoking:       r.Smoking,
		Drinking:      r.Drinking,
		City:          r.City,
		State:         r.State,
		Country:       r.Country,
		Mobile:        r.Mobile,
		About:         r.About,
	}
	if dob := strings.TrimSpace(r.DOB); dob != "" {
		t, err := time.Parse("2006-01-02", dob)
		if err != nil {
			return in, false
		}
		in.DOB = &t
	}
	return in, true
}

type searchQuery struct {
	FirstName     string `form:"first_name"`
	LastName      string `form:"last_name"`
	Sex           string `form:"sex"`
	MaritalStatus string `form:"marital_status"`
	Religion      string `form:"religion"`
	Caste         string `form:"caste"`
	SubCaste      string `form:"sub_caste"`
	MotherTongue  string `form:"mother_tongue"`
	Manglik       string `form:"manglik"`
	Star          string `form:"star"`
	Raashi        string `form:"raashi"`
	Education     string `form:"education"`
	Occupation    string `form:"occupation"`
	WorkingWith   string `form:"working_with"`
	City          string `form:"city"`
	State         string `form:"state"`
	Country       string `form:"country"`
	EatingHabit   string `form:"eating_habit"`
	AgeMin        int    `form:"age_min"`
	AgeMax        int    `form:"age_max"`
	Query         string `form:"q"`
}

// Create 为当前账号创建资料
func (h *ProfileHandler) Create(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in, ok := req.toInput()
	if !ok {
		response.BadRequest(c, "dob 格式应为 YYYY-MM-DD")
		return
	}
	profile, err := h.profiles.Create(c.Request.Context(), jwt.GetUserIDUint(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, "资料创建成功", response.FilterProfileInfo(profile, nil))
}

// Get 获取资料详情
func (h *ProfileHandler) Get(c *gin.Context) {
	detail, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, response.FilterProfileInfo(detail.Profile, detail.Photos))
}

// Update 更新资料
func (h *ProfileHandler) Update(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	in, ok := req.toInput()
	if !ok {
		response.BadRequest(c, "dob 格式应为 YYYY-MM-DD")
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), currentActor(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "资料已更新", response.FilterProfileInfo(profile, nil))
}

// Delete 删除资料
func (h *ProfileHandler) Delete(c *gin.Context) {
	if err := h.profiles.Delete(c.Request.Context(), currentActor(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "资料已删除", nil)
}

// List 分页浏览他人资料
func (h *ProfileHandler) List(c *gin.Context) {
	// 尚未创建资料的账号也可以浏览
	own, _ := h.profiles.ProfileIDForUser(c.Request.Context(), jwt.GetUserIDUint(c))
	page := pageQuery(c)
	items, total, err := h.profiles.List(c.Request.Context(), own, page)
	if err != nil {
		writeError(c, err)
		return
	}
	paged(c, profileList(items), total, page)
}

// Search 按条件检索资料
func (h *ProfileHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	own, _ := h.profiles.ProfileIDForUser(c.Request.Context(), jwt.GetUserIDUint(c))
	page := pageQuery(c)
	filter := repository.ProfileFilter{
		FirstName:        q.FirstName,
		LastName:         q.LastName,
		Sex:              q.Sex,
		MaritalStatus:    q.MaritalStatus,
		Religion:         q.Religion,
		Caste:            q.Caste,
		SubCaste:         q.SubCaste,
		MotherTongue:     q.MotherTongue,
		Manglik:          q.Manglik,
		Star:             q.Star,
		Raashi:           q.Raashi,
		Education:        q.Education,
		Occupation:       q.Occupation,
		WorkingWith:      q.WorkingWith,
		City:             q.City,
		State:            q.State,
		Country:          q.Country,
		EatingHabit:      q.EatingHabit,
		AgeMin:           q.AgeMin,
		AgeMax:           q.AgeMax,
		SearchText:       q.Query,
		ExcludeProfileID: own,
		Page:             page,
	}
	items, total, err := h.profiles.Search(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	paged(c, profileList(items), total, page)
}

// Accepted 当前用户互相匹配的资料
func (h *ProfileHandler) Accepted(c *gin.Context) {
	pid, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}
	matches, err := h.profiles.MutualMatches(c.Request.Context(), pid)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, profileList(matches))
}

// Stats 仪表盘统计
func (h *ProfileHandler) Stats(c *gin.Context) {
	stats, err := h.profiles.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}

// UploadPhotos 上传资料照片，表单字段 photos
func (h *ProfileHandler) UploadPhotos(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "需要 multipart/form-data 请求")
		return
	}
	files := form.File["photos"]

	uploads := make([]service.PhotoUpload, 0, len(files))
	opened := make([]multipart.File, 0, len(files))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "无法读取上传文件 "+fh.Filename)
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, service.PhotoUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	urls, err := h.profiles.UploadPhotos(c.Request.Context(), currentActor(c), c.Param("id"), uploads)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, "照片已上传", gin.H{"photos": urls})
}

// RecordView 当前用户浏览了该资料
func (h *ProfileHandler) RecordView(c *gin.Context) {
	viewer, ok := callerProfileID(c, h.profiles)
	if !ok {
		return
	}
	view, err := h.profiles.RecordView(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, "已记录浏览", view)
}

// Viewers 谁看过该资料，仅本人或管理员
func (h *ProfileHandler) Viewers(c *gin.Context) {
	pid := c.Param("id")
	if !isAdmin(c) {
		own, ok := callerProfileID(c, h.profiles)
		if !ok {
			return
		}
		if own != pid {
			response.Forbidden(c, "只能查看自己资料的浏览记录")
			return
		}
	}
	page := pageQuery(c)
	views, total, err := h.profiles.ListViewers(c.Request.Context(), pid, page)
	if err != nil {
		writeError(c, err)
		return
	}
	paged(c, views, total, page)
}

// Online 资料当前是否在线
func (h *ProfileHandler) Online(c *gin.Context) {
	pid := c.Param("id")
	online := false
	if h.presence != nil {
		var err error
		if online, err = h.presence.IsOnline(c.Request.Context(), pid); err != nil {
			writeError(c, err)
			return
		}
	}
	response.Success(c, gin.H{"profile_id": pid, "online": online})
}

func profileList(items []model.Profile) []*response.ProfileInfo {
	out := make([]*response.ProfileInfo, 0, len(items))
	for i := range items {
		out = append(out, response.FilterProfileInfo(&items[i], nil))
	}
	return out
}
