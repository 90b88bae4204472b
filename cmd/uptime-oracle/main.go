package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/uptime-oracle/uptime-oracle/cmd/uptime-oracle/app"
)

func main() {
	app.NewApp().Run()
}
