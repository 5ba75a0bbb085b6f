package main

import (
	"github.com/CharonDefalt/keysniff/cmd"
	"github.com/CharonDefalt/keysniff/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	cmd.Execute()
}
