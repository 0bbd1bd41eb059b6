// ABOUTME: Software volume and mute shared by playback backends
// ABOUTME: Scales 16-bit samples with clipping before they reach the device
package output

import "sync"

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	IsMuted() bool
}

// SetGain applies volume and mute to out if it supports them. It reports
// whether out is a VolumeControl.
func SetGain(out Output, volume int, muted bool) bool {
	vc, ok := out.(VolumeControl)
	if !ok {
		return false
	}
	vc.SetVolume(volume)
	vc.SetMuted(muted)
	return true
}

// gain holds volume state; the zero value is full volume, unmuted
type gain struct {
	mu     sync.Mutex
	volume int
	muted  bool
	set    bool
}

// SetVolume sets the volume (0-100)
func (g *gain) SetVolume(volume int) {
	volume = min(max(volume, 0), 100)
	g.mu.Lock()
	g.volume = volume
	g.set = true
	g.mu.Unlock()
}

// SetMuted sets mute state
func (g *gain) SetMuted(muted bool) {
	g.mu.Lock()
	g.muted = muted
	g.mu.Unlock()
}

// Volume returns current volume
func (g *gain) Volume() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentVolume()
}

// IsMuted returns mute state
func (g *gain) IsMuted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.muted
}

func (g *gain) currentVolume() int {
	if !g.set {
		return 100
	}
	return g.volume
}

// scale applies the current volume to samples in place
func (g *gain) scale(samples []int16) {
	g.mu.Lock()
	volume, muted := g.currentVolume(), g.muted
	g.mu.Unlock()
	applyVolume(samples, volume, muted)
}

// applyVolume scales samples in place with clipping protection
func applyVolume(samples []int16, volume int, muted bool) {
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1.0 {
		return
	}

	for i, sample := range samples {
		scaled := int32(float64(sample) * multiplier)
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		samples[i] = int16(scaled)
	}
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
