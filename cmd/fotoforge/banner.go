package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/qeesung/image2ascii/convert"

	"fotoforge/pkg/generator"
)

func printAsciiLogo(name string) {
	convertOptions := convert.DefaultOptions
	convertOptions.FixedWidth = 35
	convertOptions.FixedHeight = 17

	converter := convert.NewImageConverter()
	fmt.Print(converter.Image2ASCIIString(generator.Placeholder(name, 128), &convertOptions))
}

func printSignature(name, version string) {
	cyan := color.New(color.FgHiCyan, color.Bold).SprintFunc()
	white := color.New(color.FgWhite).SprintFunc()

	fmt.Println()
	fmt.Printf("%s : %s\n", cyan("Project    "), white(name))
	fmt.Printf("%s : %s\n", cyan("Version    "), white(version))
	fmt.Println()
}

func successf(format string, a ...any) { pterm.Success.Printfln(format, a...) }
func errorf(format string, a ...any)   { pterm.Error.Printfln(format, a...) }
