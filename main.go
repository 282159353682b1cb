/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ugel06/registry/cmd"

func main() {
	cmd.Execute()
}
