package main

import (
	"fmt"
	"os"

	"github.com/beego/beego/v2/server/web"

	"github.com/aihub/rag-service/app/bootstrap"
	"github.com/aihub/rag-service/app/router"
	"github.com/aihub/rag-service/internal/config"
)

func main() {
	if _, err := bootstrap.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	defer bootstrap.Shutdown()

	web.BConfig.AppName = "rag-service"
	web.BConfig.CopyRequestBody = true
	web.BConfig.RunMode = config.AppConfig.Server.Env
	if web.BConfig.RunMode == "development" {
		web.BConfig.RunMode = web.DEV
	} else {
		web.BConfig.RunMode = web.PROD
	}

	router.Init()

	web.Run(":" + config.AppConfig.Server.Port)
}
