// Package audio provides PCM codec helpers and level metering for the
// realtime voice pipeline. Microphone samples are encoded to 16-bit
// little-endian PCM for the wire; returned audio bytes are decoded back to
// normalized float samples for metering and playback hand-off.
package audio

import (
	"encoding/base64"
	"math"
)

// Format specifies audio format parameters.
type Format struct {
	// SampleRateHz in Hz. Common values: 16000, 24000, 44100, 48000.
	SampleRateHz int `json:"sample_rate_hz"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// InputFormat is the capture-side format sent to the remote endpoint.
func InputFormat() Format {
	return Format{SampleRateHz: 16000, Channels: 1, BitsPerSample: 16}
}

// OutputFormat is the playback-side format the remote endpoint emits.
func OutputFormat() Format {
	return Format{SampleRateHz: 24000, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the audio byte rate.
func (f Format) BytesPerSecond() int {
	return f.SampleRateHz * f.Channels * (f.BitsPerSample / 8)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (f Format) DurationMs(bytes int) int {
	if f.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / f.BytesPerSecond()
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (f Format) BytesForDurationMs(ms int) int {
	return (f.BytesPerSecond() * ms) / 1000
}

// EncodePCM16 converts normalized float samples in [-1, 1] to 16-bit
// little-endian PCM. Out-of-range samples are clamped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		s := int16(sample * 32767)
		out[i*2] = byte(s)
		out[i*2+1] = byte(s >> 8)
	}
	return out
}

// EncodeBase64PCM16 encodes samples as base64-armored 16-bit PCM for
// JSON transport.
func EncodeBase64PCM16(samples []float32) string {
	return base64.StdEncoding.EncodeToString(EncodePCM16(samples))
}

// DecodePCM16 interprets raw bytes as 16-bit little-endian PCM and returns
// normalized float samples. A truncated trailing byte (partial sample at the
// buffer end) is dropped rather than treated as an error.
func DecodePCM16(data []byte) []float32 {
	samples := len(data) / 2
	out := make([]float32, samples)
	for i := 0; i < samples; i++ {
		s := int16(data[i*2]) | int16(data[i*2+1])<<8
		out[i] = float32(s) / 32768.0
	}
	return out
}

// DecodeBase64PCM16 decodes a base64-armored 16-bit PCM payload.
func DecodeBase64PCM16(s string) ([]float32, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return DecodePCM16(data), nil
}

// RMSEnergy computes the root-mean-square energy of PCM audio.
// Input is assumed to be 16-bit signed little-endian PCM.
// Returns a value between 0.0 and 1.0.
func RMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// PeakAmplitude returns the maximum absolute amplitude in the PCM data.
// Returns a value between 0.0 and 1.0.
func PeakAmplitude(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	var maxAbs float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		// Use float64 to avoid overflow when negating -32768.
		abs := math.Abs(float64(sample))
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	return maxAbs / 32768.0
}
