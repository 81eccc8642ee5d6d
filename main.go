package main

import "github.com/naka-gawa/github-trophy/cmd"

func main() {
	cmd.Execute()
}
