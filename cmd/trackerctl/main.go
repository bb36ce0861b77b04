package main

import "github.com/cchai186/commodity-price-tracker/internal/cli"

func main() {
	cli.Execute()
}
