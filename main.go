package main

import (
	"deogratias/contact-api/app"
	"deogratias/contact-api/config"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	router, d, err := app.NewRouter()
	if err != nil {
		panic(err)
	}

	if config.SendReportRequested() {
		if err := d.Report.Run(); err != nil {
			panic(err)
		}

		zap.L().Info("Report sent, exiting")
		return
	}

	zap.L().Info("Server starting", zap.Int("port", viper.GetInt("host.port")))

	err = router.Run(fmt.Sprintf(":%d", viper.GetInt("host.port")))
	if err != nil {
		panic(err)
	}
}
