package main

import (
	cmd "github.com/reportcard-dev/reportcard/cmd/reportcard"
)

func main() {
	cmd.Execute()
}
