package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bunda-ai-server/src/configs"
	"bunda-ai-server/src/configs/database"
	"bunda-ai-server/src/core/auth"
	"bunda-ai-server/src/core/middleware"
	"bunda-ai-server/src/core/providers/llm/gemini"
	"bunda-ai-server/src/core/utils"
	"bunda-ai-server/src/httpsvr/account"
	"bunda-ai-server/src/httpsvr/assistant"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	config, path, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置失败 %s: %v", path, err)
	}

	logger := utils.NewLogger(config.Log.LogDir, config.Log.LogFile, config.Log.LogLevel)
	defer logger.Close()
	logger.Info("配置加载完成: %s", path)

	if err := database.Init(config.DB); err != nil {
		logger.Error("初始化数据库失败: %v", err)
		return
	}
	db := database.GetDB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := gemini.NewProvider(ctx, config.LLM, logger)
	if err != nil {
		logger.Error("初始化生成模型失败: %v", err)
		return
	}
	defer func() {
		if err := provider.Cleanup(); err != nil {
			logger.Warn("清理LLM提供者资源失败: %v", err)
		}
	}()

	authToken := auth.NewAuthToken(config.JWT.Key, config.JWT.Issuer)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	// 流式端点以 ErrAbortHandler 硬断开连接，恢复中间件须原样放行
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
			panic(recovered)
		}
		c.AbortWithStatus(http.StatusInternalServerError)
	}), middleware.CORS())
	engine.HandleMethodNotAllowed = true

	engine.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.String(http.StatusServiceUnavailable, "unhealthy")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	apiGroup := engine.Group("/api/v1")

	assistantService := assistant.NewAssistantService(config, logger, db, provider)
	assistantService.Start(ctx, engine, apiGroup, authToken)

	accountService := account.NewAccountService(config, logger, db, authToken)
	accountService.Start(ctx, engine, apiGroup)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Server.IP, config.Server.Port),
		Handler: engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP服务启动: %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("服务退出: %v", err)
		return
	}
	logger.Info("服务已停止")
}
