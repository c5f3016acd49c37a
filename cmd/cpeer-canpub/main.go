package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/canpub/cmd/cpeer-canpub/app"
)

func main() {
	app.NewApp().Run()
}
