package main

import "github.com/oshokin/roadrunner/cmd/blockwatch/cmd"

func main() {
	cmd.Execute()
}
