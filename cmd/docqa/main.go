package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/loaddesk/loaddesk/cmd/docqa/app"
)

func main() {
	app.NewApp().Run()
}
