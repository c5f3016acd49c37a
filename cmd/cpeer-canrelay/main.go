package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/canpub/cmd/cpeer-canrelay/app"
)

func main() {
	app.NewApp().Run()
}
