package main

import "github.com/letterbox/mailbox-data-api/cmd"

func main() {
	cmd.Execute()
}
