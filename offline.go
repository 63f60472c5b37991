package pedalfx

import "fmt"

// ProcessOffline renders samples through chain in blockSize pieces and
// returns a new slice. Effects see the same block boundaries a session
// with that block size would, which matters for HallReverb.
func ProcessOffline(chain *Chain, samples []float64, blockSize int) ([]float64, error) {
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size %d must be positive: %w", blockSize, ErrConfiguration)
	}
	out := make([]float64, len(samples))
	copy(out, samples)
	chain.Reserve(blockSize)
	for start := 0; start < len(out); start += blockSize {
		end := min(start+blockSize, len(out))
		chain.Process(out[start:end])
	}
	return out, nil
}

// ProcessOfflineInt16 is ProcessOffline at the device sample format.
func ProcessOfflineInt16(chain *Chain, samples []int16, blockSize int) ([]int16, error) {
	buf := make([]float64, len(samples))
	DecodeInt16(buf, samples)
	processed, err := ProcessOffline(chain, buf, blockSize)
	if err != nil {
		return nil, err
	}
	out := make([]int16, len(samples))
	EncodeInt16(out, processed)
	return out, nil
}
