package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// -------------------- 进程监控 --------------------

type SystemStats struct {
	Timestamp   time.Time
	MemoryUsed  uint64
	MemoryTotal uint64
	Goroutines  int
}

type Monitor struct {
	mu       sync.Mutex
	stats    []SystemStats
	interval time.Duration
	stopChan chan struct{}
}

func NewMonitor(interval time.Duration) *Monitor {
	return &Monitor{
		stats:    make([]SystemStats, 0, 512),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (m *Monitor) collect() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.mu.Lock()
	m.stats = append(m.stats, SystemStats{
		Timestamp:   time.Now(),
		MemoryUsed:  ms.Alloc,
		MemoryTotal: ms.Sys,
		Goroutines:  runtime.NumGoroutine(),
	})
	m.mu.Unlock()
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.collect()
			case <-m.stopChan:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() { close(m.stopChan) }

func (m *Monitor) GenerateReport() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.stats) == 0 {
		fmt.Println("没有监控数据")
		return
	}
	var maxMem uint64
	var maxGo int
	for _, s := range m.stats {
		if s.MemoryUsed > maxMem {
			maxMem = s.MemoryUsed
		}
		if s.Goroutines > maxGo {
			maxGo = s.Goroutines
		}
	}
	fmt.Println("\n=== 压测进程监控 ===")
	fmt.Printf("持续: %v\n", m.stats[len(m.stats)-1].Timestamp.Sub(m.stats[0].Timestamp))
	fmt.Printf("峰值内存: %.1fMB, 峰值Goroutine: %d\n", float64(maxMem)/1024/1024, maxGo)
}

// -------------------- 请求统计 --------------------

type APITestStats struct {
	mu        sync.Mutex
	total     int
	byStatus  map[int]int
	failed    int
	latencies time.Duration
	maxLat    time.Duration
}

func newStats() *APITestStats {
	return &APITestStats{byStatus: make(map[int]int)}
}

func (s *APITestStats) Add(status int, err error, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	if err != nil {
		s.failed++
		return
	}
	s.byStatus[status]++
	s.latencies += latency
	if latency > s.maxLat {
		s.maxLat = latency
	}
}

func (s *APITestStats) Print(title string, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Printf("\n=== %s ===\n", title)
	fmt.Printf("耗时: %v 总请求: %d 网络失败: %d\n", took, s.total, s.failed)
	for code, n := range s.byStatus {
		fmt.Printf("  HTTP %d: %d\n", code, n)
	}
	if ok := s.total - s.failed; ok > 0 {
		fmt.Printf("延迟 平均: %v 最大: %v\n", s.latencies/time.Duration(ok), s.maxLat)
	}
	if took > 0 {
		fmt.Printf("QPS: %.2f\n", float64(s.total)/took.Seconds())
	}
}

// -------------------- API 客户端 --------------------

type client struct {
	base string
	http *http.Client
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *client) do(ctx context.Context, method, path, token string, body interface{}, out interface{}) (int, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return 0, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil {
		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return resp.StatusCode, err
		}
		if resp.StatusCode >= 300 {
			return resp.StatusCode, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, env.Message)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

type member struct {
	token     string
	profileID string
}

// signup 注册账号并创建资料
func (c *client) signup(ctx context.Context, runID string, i int, sex string) (*member, error) {
	email := fmt.Sprintf("bench-%s-%d@example.com", runID, i)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": fmt.Sprintf("bench_%s_%d", runID, i),
		"email":    email,
		"password": "Bench#2024x",
	}, &login); err != nil {
		return nil, err
	}

	var profile struct {
		ProfileID string `json:"profile_id"`
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/profiles", login.AccessToken, map[string]string{
		"first_name": "Bench",
		"last_name":  fmt.Sprintf("User%d", i),
		"email":      email,
		"sex":        sex,
		"dob":        "1995-06-01",
	}, &profile); err != nil {
		return nil, err
	}
	return &member{token: login.AccessToken, profileID: profile.ProfileID}, nil
}

func (c *client) express(ctx context.Context, from *member, to string, stats *APITestStats) {
	start := time.Now()
	code, err := c.do(ctx, http.MethodPost, "/api/interests/express", from.token, map[string]string{
		"interested_in_pid": to,
		"interest_msg":      "hello from bench",
	}, nil)
	stats.Add(code, err, time.Since(start))
}

// -------------------- 压测场景 --------------------

// runPairRace 同一对资料并发表达兴趣，预期恰好一次 201，其余 409
func runPairRace(ctx context.Context, c *client, from, to *member, concurrency int) error {
	stats := newStats()
	start := time.Now()

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-release
			c.express(ctx, from, to.profileID, stats)
		}()
	}
	close(release)
	wg.Wait()

	stats.Print("同一对资料并发表达兴趣", time.Since(start))
	if created := stats.byStatus[http.StatusCreated]; created != 1 {
		return fmt.Errorf("expected exactly one created interest, got %d", created)
	}
	return nil
}

// runFanIn 多个资料并发向同一目标表达兴趣，再由目标全部接受
func runFanIn(ctx context.Context, c *client, senders []*member, target *member, concurrency int) error {
	stats := newStats()
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, s := range senders {
		s := s
		g.Go(func() error {
			c.express(gctx, s, target.profileID, stats)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	stats.Print("多对一并发表达兴趣", time.Since(start))

	var received struct {
		Items []struct {
			ID uint `json:"id"`
		} `json:"items"`
	}
	path := fmt.Sprintf("/api/interests/received/%s?limit=%d", target.profileID, len(senders))
	if _, err := c.do(ctx, http.MethodGet, path, target.token, nil, &received); err != nil {
		return err
	}

	respond := newStats()
	start = time.Now()
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, item := range received.Items {
		id := item.ID
		g.Go(func() error {
			begin := time.Now()
			code, err := c.do(gctx, http.MethodPut, fmt.Sprintf("/api/interests/respond/%d", id), target.token,
				map[string]string{"interest_status": "accepted", "response_msg": "ok"}, nil)
			respond.Add(code, err, time.Since(begin))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	respond.Print("并发接受兴趣", time.Since(start))
	return nil
}

// -------------------- 入口 --------------------

func main() {
	base := flag.String("base", "http://localhost:7000", "服务地址")
	users := flag.Int("users", 20, "参与压测的发送方数量")
	concurrency := flag.Int("c", 10, "并发数")
	flag.Parse()

	if *users < 1 || *concurrency < 1 {
		fmt.Println("users 与 c 必须大于 0")
		os.Exit(2)
	}

	ctx := context.Background()
	c := &client{base: *base, http: &http.Client{Timeout: 8 * time.Second}}
	runID := uuid.NewString()[:8]

	fmt.Println("=== 兴趣匹配并发压测 ===")
	fmt.Printf("开始时间: %s 目标: %s 发送方: %d 并发: %d\n",
		time.Now().Format("2006-01-02 15:04:05"), *base, *users, *concurrency)

	mon := NewMonitor(500 * time.Millisecond)
	mon.Start()
	defer mon.GenerateReport()
	defer mon.Stop()

	target, err := c.signup(ctx, runID, 0, "F")
	if err != nil {
		fmt.Println("创建目标资料失败:", err)
		os.Exit(1)
	}

	senders := make([]*member, *users)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	for i := range senders {
		i := i
		g.Go(func() error {
			m, err := c.signup(gctx, runID, i+1, "M")
			if err != nil {
				return err
			}
			senders[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Println("创建发送方资料失败:", err)
		os.Exit(1)
	}

	failed := false
	if err := runPairRace(ctx, c, senders[0], target, *concurrency); err != nil {
		fmt.Println("并发去重校验失败:", err)
		failed = true
	}
	if err := runFanIn(ctx, c, senders[1:], target, *concurrency); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Println("多对一场景失败:", err)
		failed = true
	}

	fmt.Println("\n=== 测试完成 ===")
	if failed {
		mon.Stop()
		mon.GenerateReport()
		os.Exit(1)
	}
}
