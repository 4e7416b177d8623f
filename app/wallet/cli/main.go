package main

import "github.com/devest/venue/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
