/*
	Copyright 2025 GazooRazoo authors
*/

package main

import "github.com/NissanArmada/GazooRazoo/cmd"

func main() {
	cmd.Execute()
}
