package main

import "github.com/moroccanspectacle/Elysian-Vault-sub001/internal/cli"

func main() {
	cli.Execute()
}
