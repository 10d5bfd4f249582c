package main

import "github.com/codegraph-dev/codegraph/cmd/codegraphctl/cmd"

func main() {
	cmd.Execute()
}
