package effects

// Distortion is a hard clipper: clamp(x*gain, -1, 1).
type Distortion struct {
	*paramSet
	gain float64
}

func NewDistortion(gain float64) (*Distortion, error) {
	d := &Distortion{
		paramSet: newParamSet("distortion",
			Param{Name: "gain", Min: -unbounded, Max: unbounded, Default: 1},
		),
	}
	if err := d.init("gain", gain); err != nil {
		return nil, err
	}
	d.gain = gain
	return d, nil
}

func (d *Distortion) Process(block []float64) {
	for i, x := range block {
		block[i] = clamp(x*d.gain, -1, 1)
	}
}

func (d *Distortion) Reset() {}

func (d *Distortion) Prepare(name string, value float64) (Change, error) {
	if err := d.validate(name, value); err != nil {
		return nil, err
	}
	d.commit(name, value)
	return func() { d.gain = value }, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
