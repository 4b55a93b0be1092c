package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchmaking/config"
	"matchmaking/internal/handler"
	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/internal/service"
	dbPkg "matchmaking/pkg/db"
	"matchmaking/pkg/jwt"
	"matchmaking/pkg/logger"
	"matchmaking/pkg/metrics"
	"matchmaking/pkg/otp"
	redisPkg "matchmaking/pkg/redis"
	"matchmaking/pkg/response"
	"matchmaking/pkg/storage"
	"matchmaking/pkg/websocket"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	// 0. 本地 .env 作为环境变量来源，文件不存在时忽略
	_ = godotenv.Load()

	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== 婚恋匹配服务启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.String("redis_host", cfg.Redis.Host),
		zap.String("storage_endpoint", cfg.Storage.Endpoint),
		zap.String("otp_backend", cfg.OTP.Backend),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.String("log_level", cfg.Log.Level),
	)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化数据库连接
	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.ProfilePhoto{},
		&model.ProfileViewLog{},
		&model.Interest{},
		&model.Shortlist{},
		&model.Inquiry{},
		&model.PartnerPreference{},
		&model.Message{},
	); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 4. Redis：在线状态与验证码
	redisClient, err := redisPkg.InitRedis(rootCtx, cfg.Redis)
	if err != nil {
		log.Fatal("Redis连接失败", zap.Error(err))
	}
	defer func() {
		if err := redisPkg.Close(); err != nil {
			log.Error("关闭Redis连接失败", zap.Error(err))
		}
	}()
	presence := redisPkg.NewPresenceStore(redisClient, 2*cfg.WebSocket.PingInterval)

	var otpStore otp.Store
	switch cfg.OTP.Backend {
	case "memory":
		memory := otp.NewMemoryStore()
		go memory.RunSweeper(rootCtx, time.Minute)
		otpStore = memory
	default:
		otpStore = otp.NewRedisStore(redisClient)
	}

	// 5. 对象存储
	minioClient, err := storage.NewClient(cfg.Storage)
	if err != nil {
		log.Fatal("对象存储初始化失败", zap.Error(err))
	}
	photos := storage.NewS3Storage(minioClient, cfg.Storage.Bucket, cfg.Storage.PresignTTL)
	if err := photos.EnsureBucket(rootCtx); err != nil {
		log.Warn("存储桶检查失败，首次上传时重试", zap.Error(err))
	}

	// 6. 初始化业务服务
	m := metrics.New(prometheus.DefaultRegisterer)
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	hub := websocket.NewHub()

	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	interestRepo := repository.NewInterestRepository(db)
	shortlistRepo := repository.NewShortlistRepository(db)
	inquiryRepo := repository.NewInquiryRepository(db)
	preferenceRepo := repository.NewPartnerPreferenceRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	interestSvc := service.NewInterestService(interestRepo, profileRepo, cfg.Interest, m)
	userSvc := service.NewUserService(userRepo, jwtSvc, otpStore, otp.LogSender{}, cfg.OTP)
	profileSvc := service.NewProfileService(profileRepo, userRepo, photos, interestSvc, cfg.Storage)
	shortlistSvc := service.NewShortlistService(shortlistRepo, profileRepo)
	inquirySvc := service.NewInquiryService(inquiryRepo)
	preferenceSvc := service.NewPartnerPreferenceService(preferenceRepo)
	messageSvc := service.NewMessageService(messageRepo, interestSvc, hub, m)

	userHandler := handler.NewUserHandler(userSvc)
	profileHandler := handler.NewProfileHandler(profileSvc, presence)
	interestHandler := handler.NewInterestHandler(interestSvc, profileSvc)
	shortlistHandler := handler.NewShortlistHandler(shortlistSvc, profileSvc)
	inquiryHandler := handler.NewInquiryHandler(inquirySvc)
	preferenceHandler := handler.NewPartnerPreferenceHandler(preferenceSvc, userSvc)
	messageHandler := handler.NewMessageHandler(messageSvc, profileSvc)
	wsHandler := websocket.NewHandler(
		hub,
		handler.TokenProfileResolver(jwtSvc, profileSvc),
		messageHandler.HandleFrame,
		presence,
		cfg.WebSocket,
		cfg.CORS.AllowedOrigins,
	)

	// 7. 设置Gin模式
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 8. 创建Gin路由
	router := gin.New()
	router.Use(logger.RequestLogger())         // 请求日志
	router.Use(logger.ErrorLoggerMiddleware()) // panic 恢复
	router.Use(m.Middleware())                 // 请求指标

	setupBasicRoutes(router, m)

	auth := jwtSvc.AuthMiddleware()
	adminOnly := jwt.RequireRole(model.RoleAdmin)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", userHandler.Register)
			authGroup.POST("/login", userHandler.Login)
			authGroup.POST("/forgot-password", userHandler.ForgotPassword)
			authGroup.POST("/verify-otp", userHandler.VerifyOTP)
			authGroup.POST("/reset-password", userHandler.ResetPassword)
		}

		users := api.Group("/users", auth)
		{
			users.GET("/me", userHandler.Me)
			users.POST("/change-password", userHandler.ChangePassword)
		}

		profiles := api.Group("/profiles", auth)
		{
			profiles.POST("", profileHandler.Create)
			profiles.GET("", profileHandler.List)
			profiles.GET("/search", profileHandler.Search)
			profiles.GET("/accepted", profileHandler.Accepted)
			profiles.GET("/dashboard/stats", adminOnly, profileHandler.Stats)
			profiles.GET("/:id", profileHandler.Get)
			profiles.PUT("/:id", profileHandler.Update)
			profiles.DELETE("/:id", profileHandler.Delete)
			profiles.POST("/:id/photos", profileHandler.UploadPhotos)
			profiles.POST("/:id/views", profileHandler.RecordView)
			profiles.GET("/:id/views", profileHandler.Viewers)
			profiles.GET("/:id/online", profileHandler.Online)
		}

		interests := api.Group("/interests", auth)
		{
			interests.POST("/express", interestHandler.Express)
			interests.PUT("/respond/:id", interestHandler.Respond)
			interests.DELETE("/:id", interestHandler.Withdraw)
			interests.GET("/search", interestHandler.SearchPair)
			interests.GET("/mutual/:pid", interestHandler.Mutual)
			interests.GET("/received/:pid", interestHandler.Received)
			interests.GET("/sent/:pid", interestHandler.Sent)
			interests.GET("", adminOnly, interestHandler.ListAll)
		}

		shortlist := api.Group("/shortlist", auth)
		{
			shortlist.POST("", shortlistHandler.Add)
			shortlist.GET("", shortlistHandler.List)
			shortlist.DELETE("/:pid", shortlistHandler.Remove)
		}

		// 咨询表单无需登录，查看与删除仅管理员
		api.POST("/inquiries", inquiryHandler.Create)
		inquiries := api.Group("/inquiries", auth, adminOnly)
		{
			inquiries.GET("", inquiryHandler.List)
			inquiries.DELETE("/:id", inquiryHandler.Delete)
		}

		preference := api.Group("/partner-preference", auth)
		{
			preference.PUT("", preferenceHandler.Save)
			preference.GET("", preferenceHandler.Get)
			preference.DELETE("", preferenceHandler.Delete)
		}

		messages := api.Group("/messages", auth)
		{
			messages.POST("", messageHandler.SendMessage)
			messages.GET("/:pid", messageHandler.GetConversation)
			messages.DELETE("/:id", messageHandler.DeleteMessage)
		}
	}

	// WebSocket路由，token 通过查询参数或子协议携带
	router.GET("/ws", wsHandler.Serve)

	// 9. 创建HTTP服务器，CORS 包在最外层
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 10. 启动HTTP服务器
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 11. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}

// setupBasicRoutes 设置基础路由
func setupBasicRoutes(router *gin.Engine, m *metrics.Metrics) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		checks := gin.H{"database": "ok", "redis": "ok"}
		if err := dbPkg.HealthCheck(ctx); err != nil {
			status = "degraded"
			checks["database"] = err.Error()
		}
		if err := redisPkg.HealthCheck(ctx); err != nil {
			status = "degraded"
			checks["redis"] = err.Error()
		}
		response.Success(c, gin.H{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Prometheus 指标
	router.GET("/metrics", m.Handler())
}
