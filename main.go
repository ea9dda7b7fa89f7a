package main

import (
	"github.com/mediaroll/mediaroll/cmd"
	"github.com/mediaroll/mediaroll/config"
	"github.com/mediaroll/mediaroll/internal/retention"
	"github.com/mediaroll/mediaroll/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go retention.CollectGarbage()

	cmd.Execute()
}
