package main

import "github.com/failguard/failguard/internal/cmd"

func main() {
	cmd.Execute()
}
