package main

import (
	"github.com/nguyentranbao-ct/storefront/cmd"
)

func main() {
	cmd.Execute()
}
