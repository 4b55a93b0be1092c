package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/internal/service"
	"matchmaking/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubProfiles 账号ID到资料ID的映射
type stubProfiles map[uint]string

func (s stubProfiles) ProfileIDForUser(_ context.Context, userID uint) (string, error) {
	pid, ok := s[userID]
	if !ok {
		return "", service.ErrProfileRequired
	}
	return pid, nil
}

type stubInterests struct {
	express  func(from, to, message string) (*model.Interest, service.Outcome, error)
	respond  func(id uint, responder string, status model.InterestStatus, message string) (*model.Interest, error)
	withdraw func(id uint, requester string) error
	byPair   func(from, to string) (*model.Interest, bool, error)
	list     func(profileID string, status model.InterestStatus) ([]model.Interest, int64, error)
}

func (s *stubInterests) ExpressInterest(_ context.Context, from, to, message string) (*model.Interest, service.Outcome, error) {
	return s.express(from, to, message)
}

func (s *stubInterests) RespondToInterest(_ context.Context, id uint, responder string, status model.InterestStatus, message string) (*model.Interest, error) {
	return s.respond(id, responder, status, message)
}

func (s *stubInterests) WithdrawInterest(_ context.Context, id uint, requester string) error {
	return s.withdraw(id, requester)
}

func (s *stubInterests) FindInterestByPair(_ context.Context, from, to string) (*model.Interest, bool, error) {
	return s.byPair(from, to)
}

func (s *stubInterests) FindMutualMatches(_ context.Context, profileID string) ([]string, error) {
	return []string{}, nil
}

func (s *stubInterests) ListReceived(_ context.Context, profileID string, status model.InterestStatus, _ repository.Page) ([]model.Interest, int64, error) {
	return s.list(profileID, status)
}

func (s *stubInterests) ListSent(_ context.Context, profileID string, status model.InterestStatus, _ repository.Page) ([]model.Interest, int64, error) {
	return s.list(profileID, status)
}

func (s *stubInterests) ListAll(_ context.Context, status model.InterestStatus, _ repository.Page) ([]model.Interest, int64, error) {
	return s.list("", status)
}

// asUser 模拟 AuthMiddleware 写入的认证信息
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(jwt.ContextUserIDKey, fmt.Sprintf("%d", userID))
		c.Set(jwt.ContextRoleKey, role)
		c.Next()
	}
}

func newInterestRouter(stub *stubInterests, userID uint, role string) *gin.Engine {
	h := NewInterestHandler(stub, stubProfiles{1: "MP1", 2: "MP2", 9: "MPADMIN"})
	r := gin.New()
	g := r.Group("/api/interests", asUser(userID, role))
	g.POST("/express", h.Express)
	g.PUT("/respond/:id", h.Respond)
	g.DELETE("/:id", h.Withdraw)
	g.GET("/search", h.SearchPair)
	g.GET("/received/:pid", h.Received)
	g.GET("", h.ListAll)
	return r
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func pendingInterest(id uint, from, to string) *model.Interest {
	return &model.Interest{ID: id, FromProfileID: from, ToProfileID: to, Status: model.InterestPending, RequestMessage: "hi"}
}

func TestExpressInterest(t *testing.T) {
	stub := &stubInterests{
		express: func(from, to, message string) (*model.Interest, service.Outcome, error) {
			switch to {
			case "MP2":
				return pendingInterest(7, from, to), service.OutcomeCreated, nil
			case "MP3":
				return pendingInterest(8, from, to), service.OutcomeReactivated, nil
			case "MPDUP":
				existing := pendingInterest(5, from, to)
				existing.Status = model.InterestAccepted
				return existing, service.OutcomeConflict, fmt.Errorf("%w: active", service.ErrConflict)
			case "MPGONE":
				return nil, 0, fmt.Errorf("%w: profile MPGONE", service.ErrNotFound)
			case "MPDB":
				return nil, 0, fmt.Errorf("%w: connection refused", service.ErrStorage)
			}
			return nil, 0, fmt.Errorf("%w: bad", service.ErrInvalidArgument)
		},
	}
	r := newInterestRouter(stub, 1, model.RoleUser)

	t.Run("created", func(t *testing.T) {
		w, env := doJSON(t, r, http.MethodPost, "/api/interests/express", gin.H{"interested_in_pid": "MP2", "interest_msg": "hi"})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 0, env.Code)
		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "MP1", data["from_profile_id"])
		assert.Equal(t, "pending", data["status"])
	})

	t.Run("reactivated", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/api/interests/express", gin.H{"interested_in_pid": "MP3"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("conflict returns existing record", func(t *testing.T) {
		w, env := doJSON(t, r, http.MethodPost, "/api/interests/express", gin.H{"interested_in_pid": "MPDUP"})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, http.StatusConflict, env.Code)
		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.EqualValues(t, 5, data["id"])
		assert.Equal(t, "accepted", data["status"])
	})

	t.Run("status mapping", func(t *testing.T) {
		cases := map[string]int{
			"MPGONE": http.StatusNotFound,
			"MPDB":   http.StatusInternalServerError,
			"MPBAD":  http.StatusBadRequest,
		}
		for to, want := range cases {
			w, _ := doJSON(t, r, http.MethodPost, "/api/interests/express", gin.H{"interested_in_pid": to})
			assert.Equal(t, want, w.Code, to)
		}
	})

	t.Run("missing target", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/api/interests/express", gin.H{"interest_msg": "hi"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cannot act as another profile", func(t *testing.T) {
		w, _ := doJSON(t, r, http.MethodPost, "/api/interests/express", gin.H{"interest_from_pid": "MP2", "interested_in_pid": "MP3"})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("caller without profile", func(t *testing.T) {
		noProfile := newInterestRouter(stub, 42, model.RoleUser)
		w, _ := doJSON(t, noProfile, http.MethodPost, "/api/interests/express", gin.H{"interested_in_pid": "MP2"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("admin may act for a profile", func(t *testing.T) {
		admin := newInterestRouter(stub, 9, model.RoleAdmin)
		w, env := doJSON(t, admin, http.MethodPost, "/api/interests/express", gin.H{"interest_from_pid": "MP1", "interested_in_pid": "MP2"})
		assert.Equal(t, http.StatusCreated, w.Code)
		var data map[string]interface{}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, "MP1", data["from_profile_id"])
	})
}

func TestRespondToInterest(t *testing.T) {
	var gotResponder string
	var gotStatus model.InterestStatus
	stub := &stubInterests{
		respond: func(id uint, responder string, status model.InterestStatus, message string) (*model.Interest, error) {
			gotResponder, gotStatus = responder, status
			switch id {
			case 1:
				it := pendingInterest(1, "MP1", responder)
				it.Status = status
				it.ResponseMessage = message
				return it, nil
			case 2:
				return nil, fmt.Errorf("%w: not the recipient", service.ErrUnauthorized)
			case 3:
				return nil, fmt.Errorf("%w: already answered", service.ErrConflict)
			}
			return nil, fmt.Errorf("%w: interest", service.ErrNotFound)
		},
	}
	r := newInterestRouter(stub, 2, model.RoleUser)

	w, env := doJSON(t, r, http.MethodPut, "/api/interests/respond/1", gin.H{"interest_status": "A", "response_msg": "yes"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MP2", gotResponder)
	assert.Equal(t, model.InterestAccepted, gotStatus)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "yes", data["response_message"])

	w, _ = doJSON(t, r, http.MethodPut, "/api/interests/respond/1", gin.H{"interest_status": "pending"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/api/interests/respond/abc", gin.H{"interest_status": "accepted"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/api/interests/respond/2", gin.H{"interest_status": "declined"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/api/interests/respond/3", gin.H{"interest_status": "declined"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = doJSON(t, r, http.MethodPut, "/api/interests/respond/4", gin.H{"interest_status": "declined"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWithdrawInterest(t *testing.T) {
	stub := &stubInterests{
		withdraw: func(id uint, requester string) error {
			if id == 1 && requester == "MP1" {
				return nil
			}
			return fmt.Errorf("%w: interest %d", service.ErrNotFound, id)
		},
	}
	r := newInterestRouter(stub, 1, model.RoleUser)

	w, _ := doJSON(t, r, http.MethodDelete, "/api/interests/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/interests/2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, r, http.MethodDelete, "/api/interests/1", gin.H{"requester_profile_id": "MP2"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchPairAndListing(t *testing.T) {
	stub := &stubInterests{
		byPair: func(from, to string) (*model.Interest, bool, error) {
			if from == "MP1" && to == "MP2" {
				return pendingInterest(1, from, to), true, nil
			}
			return nil, false, nil
		},
		list: func(profileID string, status model.InterestStatus) ([]model.Interest, int64, error) {
			return []model.Interest{*pendingInterest(1, "MP2", profileID)}, 1, nil
		},
	}
	r := newInterestRouter(stub, 1, model.RoleUser)

	w, _ := doJSON(t, r, http.MethodGet, "/api/interests/search?from=MP1&to=MP2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/interests/search?from=MP2&to=MP1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/interests/search?from=MP2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := doJSON(t, r, http.MethodGet, "/api/interests/received/MP1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Items []map[string]interface{} `json:"items"`
		Total int64                    `json:"total"`
		Pages int                      `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.Pages)
	require.Len(t, page.Items, 1)

	w, _ = doJSON(t, r, http.MethodGet, "/api/interests/received/MP2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/interests/received/MP1?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	admin := newInterestRouter(stub, 9, model.RoleAdmin)
	w, _ = doJSON(t, admin, http.MethodGet, "/api/interests/received/MP2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, admin, http.MethodGet, "/api/interests?status=accepted", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
