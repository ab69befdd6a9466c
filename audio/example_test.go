// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"

	"github.com/ik5/pcmbridge/audio"
)

func ExampleConform() {
	src, err := audio.NewMemorySource([]float32{0.5, 0.5, 0.5, 0.5}, 1, 8000)
	if err != nil {
		panic(err)
	}

	out, err := audio.Conform(src, 8000, 2)
	if err != nil {
		panic(err)
	}

	buf := make([]float32, 8)
	n, _ := out.ReadSamples(buf)

	fmt.Println(out.Channels(), out.SampleRate(), buf[:n])
	// Output: 2 8000 [0.5 0.5 0.5 0.5 0.5 0.5 0.5 0.5]
}

func ExampleRegistry_Lookup() {
	reg := audio.NewRegistry()

	_, err := reg.Lookup("take1.mp3")
	fmt.Println(err)
	// Output: "mp3": no decoder registered for format
}
