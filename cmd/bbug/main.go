package main

import "github.com/oshokin/bbug/cmd/bbug/cmd"

func main() {
	cmd.Execute()
}
