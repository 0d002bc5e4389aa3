// Package termcolor provides the small set of colorized terminal helpers
// hfpagctl uses for status output.
package termcolor

import "github.com/fatih/color"

func Green(s string) string {
	c := color.New(color.FgHiGreen)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func Yellow(s string) string {
	c := color.New(color.FgHiYellow)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func Red(s string) string {
	c := color.New(color.FgHiRed)
	c.EnableColor()
	return c.SprintFunc()(s)
}
