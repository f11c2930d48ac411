package filter

import "fmt"

// Profile holds the normalisation a trained model expects. These values belong to
// the model file, not to the algorithm.
type Profile struct {
	Name string
	// Scale multiplies 8-bit intensities on the way in. Foreground outputs are divided by it.
	Scale float32
	// SwapRB reverses the channel order between the frame and the model.
	SwapRB          bool
	DownsampleRatio float32
	InputNames      []string
	OutputNames     []string
}

var rvmInputs = []string{"src", "r1i", "r2i", "r3i", "r4i", "downsample_ratio"}
var rvmOutputs = []string{"fgr", "pha", "r1o", "r2o", "r3o", "r4o"}

var profiles = map[string]Profile{
	"rvm-mobilenetv3": {
		Name:            "rvm-mobilenetv3",
		Scale:           1.0 / 255.0,
		SwapRB:          true,
		DownsampleRatio: 0.25,
		InputNames:      rvmInputs,
		OutputNames:     rvmOutputs,
	},
	"rvm-resnet50": {
		Name:            "rvm-resnet50",
		Scale:           1.0 / 255.0,
		SwapRB:          true,
		DownsampleRatio: 0.25,
		InputNames:      rvmInputs,
		OutputNames:     rvmOutputs,
	},
	// Exports that take RGB intensities in 0..255 at full working resolution
	"rvm-raw": {
		Name:            "rvm-raw",
		Scale:           1.0,
		SwapRB:          false,
		DownsampleRatio: 1.0,
		InputNames:      rvmInputs,
		OutputNames:     rvmOutputs,
	},
}

const DefaultProfileName = "rvm-mobilenetv3"

// LookupProfile returns a copy of a named profile.
func LookupProfile(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}

	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown model profile %q", name)
	}

	p.InputNames = append([]string(nil), p.InputNames...)
	p.OutputNames = append([]string(nil), p.OutputNames...)
	return p, nil
}

func (p Profile) validate() error {
	if p.Scale <= 0 {
		return fmt.Errorf("profile %s: scale must be positive, got %v", p.Name, p.Scale)
	}

	if p.DownsampleRatio <= 0 || p.DownsampleRatio > 1 {
		return fmt.Errorf("profile %s: downsample ratio must be in (0,1], got %v", p.Name, p.DownsampleRatio)
	}

	if len(p.InputNames) != matteInputs || len(p.OutputNames) != matteOutputs {
		return fmt.Errorf("profile %s: expected %d input and %d output names", p.Name, matteInputs, matteOutputs)
	}

	return nil
}
