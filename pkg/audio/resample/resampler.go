// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used by file capture sources to match the configured stream rate
package resample

// Resampler performs linear interpolation to convert between sample rates.
// It carries the last input frame across calls so consecutive chunks join
// without a gap.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	lastSample []int32 // one sample per channel
	havePrev   bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		position:   0.0,
		lastSample: make([]int32, channels),
	}
}

// InputRate returns the source sample rate
func (r *Resampler) InputRate() int { return r.inputRate }

// OutputRate returns the target sample rate
func (r *Resampler) OutputRate() int { return r.outputRate }

// Resample converts input samples to output sample rate using linear interpolation
// input: interleaved samples at inputRate
// output: interleaved samples at outputRate, sized with OutputSamplesNeeded
// Returns the number of output samples written.
func (r *Resampler) Resample(input []int32, output []int32) int {
	ch := r.channels
	inputFrames := len(input) / ch
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / ch

	// Frame 0 of the virtual sequence is the carried frame, when there is one.
	offset := 0
	if r.havePrev {
		offset = 1
	}
	total := inputFrames + offset

	at := func(i, c int) int32 {
		if i < offset {
			return r.lastSample[c]
		}
		return input[(i-offset)*ch+c]
	}

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(r.position)
		if inputIdx+1 >= total {
			break
		}

		frac := r.position - float64(inputIdx)
		for c := 0; c < ch; c++ {
			sample1 := at(inputIdx, c)
			sample2 := at(inputIdx+1, c)
			interpolated := float64(sample1)*(1.0-frac) + float64(sample2)*frac
			output[outIdx*ch+c] = int32(interpolated)
		}

		outIdx++
		r.position += r.ratio
	}

	copy(r.lastSample, input[(inputFrames-1)*ch:inputFrames*ch])
	r.havePrev = true

	r.position -= float64(total - 1)
	if r.position < 0 {
		r.position = 0
	}

	return outIdx * ch
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.havePrev = false
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// OutputSamplesNeeded calculates how many output samples will be produced from input samples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples are needed to produce output samples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames)*r.ratio + 0.5)
	if inputFrames < 1 {
		inputFrames = 1
	}
	return inputFrames * r.channels
}
