package main

import (
	"github.com/webshop/storefront/cmd"
)

func main() {
	cmd.Start()
}
