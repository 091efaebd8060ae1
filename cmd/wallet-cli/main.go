package main

import "wallet-ops/cmd/wallet-cli/cmd"

func main() {
	cmd.Execute()
}
