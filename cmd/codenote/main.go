package main

import "codenote/internal/cli"

func main() {
	cli.Execute()
}
