package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "Upside/global/config"
	"Upside/logger"
	mid "Upside/middleware"
	authhdl "Upside/module/auth/handler"
	chathdl "Upside/module/chat/handler"
	chatsrv "Upside/module/chat/service"
	posthdl "Upside/module/post/handler"
	userhdl "Upside/module/user/handler"
	wschat "Upside/service/chat"
	mgoSrv "Upside/service/mgo"
	"Upside/service/natsx"
	storage "Upside/service/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config.ConfigAll(ctx)

	// mongo 首连等一下；等不到也继续起 http，mgo 层会继续重连
	waitCtx, waitCancel := context.WithTimeout(ctx, 15*time.Second)
	if err := mgoSrv.WaitReady(waitCtx, mgoSrv.Manager()); err != nil {
		logger.Warnf("mongo 暂未就绪，先启动服务: %v", err)
	}
	waitCancel()

	wsServer := wschat.NewServer(chatsrv.SeenStoreFunc(chatsrv.MarkChatSeen))

	r := gin.New()
	r.Use(gin.Recovery(), mid.CORS())

	v1 := r.Group("/api/v1")
	authhdl.RegisterRoutes(v1.Group("/auth"))
	userhdl.RegisterRoutes(v1.Group("/user"))
	posthdl.RegisterRoutes(v1.Group("/post"))
	chathdl.New(wsServer.Coordinator()).RegisterRoutes(v1.Group("/chat"))

	r.GET("/ws", wsServer.HandleWS)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Global.Port),
		Handler: r,
	}

	go func() {
		logger.Infof("http 服务启动 :%d", config.Global.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("http 服务退出: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Infof("开始优雅关闭")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warnf("http 关闭超时: %v", err)
	}
	wsServer.Registry().Close()
	natsx.CloseGlobal()
	storage.CloseRedis()
}
