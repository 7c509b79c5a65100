package main

import (
	"github.com/cnosuke/deploy-gcp/cmd"
)

var (
	// Version and Revision are replaced when building.
	// Set them with -ldflags "-X main.Version=...".
	Version  = "0.0.1"
	Revision = "xxx"

	Name = "deploy-gcp"
)

func main() {
	cmd.Execute(Name, Version, Revision)
}
