package main

import "github.com/scoala-bot/scoala/cmd"

func main() {
	cmd.Execute()
}
