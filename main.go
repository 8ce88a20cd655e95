/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/Joach27/chatt/cmd"

func main() {
	cmd.Execute()
}
