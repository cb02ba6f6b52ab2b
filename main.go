package main

import "github.com/KaramelBytes/userdeck-cli/cmd"

func main() {
	cmd.Execute()
}
