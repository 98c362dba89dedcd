package window

import "fmt"

func ExampleGenerate() {
	w := Generate(TypeHann, 4)
	fmt.Printf("%.2f %.2f %.2f %.2f\n", w[0], w[1], w[2], w[3])
	// Output:
	// 0.00 0.75 0.75 0.00
}

func ExampleCoherentGain() {
	g, _ := CoherentGain(Generate(TypeHamming, 512, WithPeriodic()))
	fmt.Printf("%.2f\n", g)
	// Output:
	// 0.54
}
