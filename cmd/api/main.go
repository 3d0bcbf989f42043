package main

import "github.com/safar/go-storefront/internal/cmd"

func main() {
	cmd.Execute()
}
