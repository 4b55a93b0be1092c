package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"matchmaking/config"
	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// InterestStore 意向存储，由 repository.InterestRepository 实现
type InterestStore interface {
	Upsert(ctx context.Context, from, to, message string) (*model.Interest, repository.UpsertResult, error)
	GetByID(ctx context.Context, id uint) (*model.Interest, error)
	FindByPair(ctx context.Context, from, to string) (*model.Interest, error)
	Respond(ctx context.Context, id uint, responder string, status model.InterestStatus, message string) (bool, error)
	Delete(ctx context.Context, id uint, from string) (bool, error)
	AcceptedTargets(ctx context.Context, from string) ([]string, error)
	AcceptedSenders(ctx context.Context, to string, candidates []string) ([]string, error)
	List(ctx context.Context, filter repository.InterestFilter) ([]model.Interest, int64, error)
}

// ProfileDirectory 资料目录，用于在写入前校验资料引用
type ProfileDirectory interface {
	Exists(ctx context.Context, profileID string) (bool, error)
}

// Outcome ExpressInterest 的结果
type Outcome int

const (
	OutcomeCreated Outcome = iota + 1
	OutcomeReactivated
	OutcomeConflict
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeReactivated:
		return "reactivated"
	case OutcomeConflict:
		return "conflict"
	}
	return "unknown"
}

// InterestService 意向状态机
// 无进程内状态，唯一的竞争（同一有序对并发表达意向）由存储层唯一索引和单条 upsert 消解
type InterestService struct {
	store    InterestStore
	profiles ProfileDirectory
	limits   config.InterestConfig
	metrics  *metrics.Metrics
}

// NewInterestService 创建InterestService实例，m 可为 nil
func NewInterestService(store InterestStore, profiles ProfileDirectory, limits config.InterestConfig, m *metrics.Metrics) *InterestService {
	if limits.MaxProfileIDLength <= 0 {
		limits.MaxProfileIDLength = 50
	}
	if limits.MaxMessageLength <= 0 {
		limits.MaxMessageLength = 200
	}
	return &InterestService{store: store, profiles: profiles, limits: limits, metrics: m}
}

// ExpressInterest from 向 to 表达意向
//   - 不存在记录：新建 pending
//   - 已存在 declined 记录：重置为 pending 并替换留言
//   - 已存在 pending/accepted 记录：不修改，返回该记录和 ErrConflict
func (s *InterestService) ExpressInterest(ctx context.Context, from, to, message string) (*model.Interest, Outcome, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if err := s.validateProfileID("from_profile_id", from); err != nil {
		return nil, 0, err
	}
	if err := s.validateProfileID("to_profile_id", to); err != nil {
		return nil, 0, err
	}
	if from == to {
		return nil, 0, invalidf("cannot express interest in your own profile")
	}
	if err := s.validateMessage("request_message", message); err != nil {
		return nil, 0, err
	}

	if err := s.requireProfiles(ctx, from, to); err != nil {
		return nil, 0, err
	}

	interest, result, err := s.store.Upsert(ctx, from, to, message)
	if err != nil {
		return nil, 0, storageErr(err)
	}

	switch result {
	case repository.UpsertCreated:
		s.metrics.Interest("express", OutcomeCreated.String())
		return interest, OutcomeCreated, nil
	case repository.UpsertReactivated:
		s.metrics.Interest("express", OutcomeReactivated.String())
		return interest, OutcomeReactivated, nil
	default:
		s.metrics.Interest("express", OutcomeConflict.String())
		return interest, OutcomeConflict, conflictf("an active interest already exists (status %s)", interest.Status)
	}
}

// RespondToInterest 接收方接受或拒绝一条 pending 意向
func (s *InterestService) RespondToInterest(ctx context.Context, interestID uint, responder string, status model.InterestStatus, message string) (*model.Interest, error) {
	responder = strings.TrimSpace(responder)
	if !status.IsResponse() {
		return nil, invalidf("status must be %q or %q", model.InterestAccepted, model.InterestDeclined)
	}
	if err := s.validateProfileID("responder_profile_id", responder); err != nil {
		return nil, err
	}
	if err := s.validateMessage("response_message", message); err != nil {
		return nil, err
	}

	interest, err := s.store.GetByID(ctx, interestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("interest %d", interestID)
		}
		return nil, storageErr(err)
	}
	if err := s.requireProfiles(ctx, responder); err != nil {
		return nil, err
	}
	if interest.ToProfileID != responder {
		s.metrics.Interest("respond", "unauthorized")
		return nil, unauthorizedf("only the receiving profile may respond")
	}
	if interest.Status != model.InterestPending {
		s.metrics.Interest("respond", "conflict")
		return interest, conflictf("interest already %s", interest.Status)
	}

	ok, err := s.store.Respond(ctx, interestID, responder, status, message)
	if err != nil {
		return nil, storageErr(err)
	}
	if !ok {
		// 读后写之间记录被撤回或已被回复
		current, err := s.store.GetByID(ctx, interestID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundf("interest %d", interestID)
		}
		if err != nil {
			return nil, storageErr(err)
		}
		s.metrics.Interest("respond", "conflict")
		return current, conflictf("interest already %s", current.Status)
	}

	updated, err := s.store.GetByID(ctx, interestID)
	if err != nil {
		return nil, storageErr(err)
	}
	s.metrics.Interest("respond", string(status))
	return updated, nil
}

// WithdrawInterest 发起方撤回意向
// 记录不存在与不属于请求方统一返回 ErrNotFound，避免泄露记录是否存在
func (s *InterestService) WithdrawInterest(ctx context.Context, interestID uint, requester string) error {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return notFoundf("interest %d", interestID)
	}
	ok, err := s.store.Delete(ctx, interestID, requester)
	if err != nil {
		return storageErr(err)
	}
	if !ok {
		return notFoundf("interest %d", interestID)
	}
	s.metrics.Interest("withdraw", "deleted")
	return nil
}

// FindInterestByPair 按有序对查找，找不到返回 (nil, false, nil)
func (s *InterestService) FindInterestByPair(ctx context.Context, from, to string) (*model.Interest, bool, error) {
	interest, err := s.store.FindByPair(ctx, strings.TrimSpace(from), strings.TrimSpace(to))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storageErr(err)
	}
	return interest, true, nil
}

// FindMutualMatches 返回与 profileID 互相接受的资料ID，不保证顺序
func (s *InterestService) FindMutualMatches(ctx context.Context, profileID string) ([]string, error) {
	profileID = strings.TrimSpace(profileID)
	if profileID == "" {
		return nil, invalidf("profile id is required")
	}

	// 1. profileID 发出且被接受的目标
	targets, err := s.store.AcceptedTargets(ctx, profileID)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(targets) == 0 {
		return []string{}, nil
	}

	// 2. 只保留同样向 profileID 发出且被接受的目标
	mutual, err := s.store.AcceptedSenders(ctx, profileID, targets)
	if err != nil {
		return nil, storageErr(err)
	}
	if mutual == nil {
		mutual = []string{}
	}
	return mutual, nil
}

// IsMutualMatch a 与 b 是否互相匹配
func (s *InterestService) IsMutualMatch(ctx context.Context, a, b string) (bool, error) {
	if a == "" || b == "" || a == b {
		return false, nil
	}

	var forward, backward bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forward, err = s.acceptedDirection(gctx, a, b)
		return err
	})
	g.Go(func() error {
		var err error
		backward, err = s.acceptedDirection(gctx, b, a)
		return err
	})
	if err := g.Wait(); err != nil {
		return false, storageErr(err)
	}
	return forward && backward, nil
}

// ListReceived 收到的意向，status 为空时返回全部状态
func (s *InterestService) ListReceived(ctx context.Context, profileID string, status model.InterestStatus, page repository.Page) ([]model.Interest, int64, error) {
	return s.list(ctx, repository.InterestFilter{ToProfileID: profileID, Status: status, Page: page})
}

// ListSent 发出的意向
func (s *InterestService) ListSent(ctx context.Context, profileID string, status model.InterestStatus, page repository.Page) ([]model.Interest, int64, error) {
	return s.list(ctx, repository.InterestFilter{FromProfileID: profileID, Status: status, Page: page})
}

// ListAll 全部意向（管理端）
func (s *InterestService) ListAll(ctx context.Context, status model.InterestStatus, page repository.Page) ([]model.Interest, int64, error) {
	return s.list(ctx, repository.InterestFilter{Status: status, Page: page})
}

func (s *InterestService) list(ctx context.Context, filter repository.InterestFilter) ([]model.Interest, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, invalidf("unknown status %q", filter.Status)
	}
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return items, total, nil
}

func (s *InterestService) acceptedDirection(ctx context.Context, from, to string) (bool, error) {
	interest, err := s.store.FindByPair(ctx, from, to)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return interest.Status == model.InterestAccepted, nil
}

// requireProfiles 并发校验资料存在，任一不存在返回 ErrNotFound
func (s *InterestService) requireProfiles(ctx context.Context, profileIDs ...string) error {
	missing := make([]bool, len(profileIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range profileIDs {
		g.Go(func() error {
			ok, err := s.profiles.Exists(gctx, id)
			if err != nil {
				return err
			}
			missing[i] = !ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return storageErr(err)
	}
	for i, m := range missing {
		if m {
			return notFoundf("profile %s", profileIDs[i])
		}
	}
	return nil
}

func (s *InterestService) validateProfileID(field, id string) error {
	if id == "" {
		return invalidf("%s is required", field)
	}
	if utf8.RuneCountInString(id) > s.limits.MaxProfileIDLength {
		return invalidf("%s exceeds %d characters", field, s.limits.MaxProfileIDLength)
	}
	return nil
}

func (s *InterestService) validateMessage(field, message string) error {
	if utf8.RuneCountInString(message) > s.limits.MaxMessageLength {
		return invalidf("%s exceeds %d characters", field, s.limits.MaxMessageLength)
	}
	return nil
}
