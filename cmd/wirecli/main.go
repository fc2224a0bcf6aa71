package main

import (
	"github.com/robotalks/wire.go/pkg/cli/sh"
	"github.com/robotalks/wire.go/pkg/phy"
)

//go-build: CGO_ENABLED=0

func init() {
	phy.SetupFlags()
}

func main() {
	sh.Main()
}
