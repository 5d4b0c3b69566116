/*
Package dsl provides a fluent Go builder for conversation scripts.

It lets a host or a test describe states in code instead of YAML or JSON
documents. The result is a memory loader that script.Load accepts like any
other source.

Example usage:

	b := dsl.New()

	b.Add("S1").
		Say("Hi! What's your goal?").
		Collect("goal", domain.CaptureFreeText).
		Go("S7")

	b.Add("S7").
		Say("Here are people like you.").
		Carousel("S8")

	b.Add("S8").
		Say("Let me put a plan together.").
		Recommend()

	b.Trigger("pricing", `price|cost`, "")

	loader, err := b.Build()
	// ... pass loader to coach.New(...)
*/
package dsl
