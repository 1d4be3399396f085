// Package main is the entry point for the inventory loader.
package main

import "inventory-loader/cmd/invload/cmd"

func main() {
	cmd.Execute()
}
