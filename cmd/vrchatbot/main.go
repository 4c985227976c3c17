package main

import "github.com/jmcleod/vrchatbot/cmd/vrchatbot/cmd"

func main() {
	cmd.Execute()
}
