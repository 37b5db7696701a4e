package main

import "github.com/tobyv/a11yrelay/cmd"

func main() {
	cmd.Execute()
}
