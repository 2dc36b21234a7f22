package main

import "github.com/nikogura/cvforge/cmd"

func main() {
	cmd.Execute()
}
