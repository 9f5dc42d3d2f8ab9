package main

import "github.com/LeeDohoun/HQA-Project/internal/cli"

func main() {
	cli.Run()
}
