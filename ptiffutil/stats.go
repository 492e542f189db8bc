package ptiffutil

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mrjoshuak/go-ptiff/tiff"
)

// ===========================================
// Statistics
// ===========================================

// ChannelStats summarizes the values of one channel. Complex samples use
// their real part.
type ChannelStats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// LevelStats returns the statistics of every channel of img.
func LevelStats(img *tiff.Image) []ChannelStats {
	out := make([]ChannelStats, img.Channels)
	if img.Width == 0 || img.Height == 0 {
		return out
	}
	for c := range out {
		v := ChannelValues(img, c)
		mean, std := stat.MeanStdDev(v, nil)
		if len(v) == 1 {
			std = 0
		}
		out[c] = ChannelStats{
			Min:    floats.Min(v),
			Max:    floats.Max(v),
			Mean:   mean,
			StdDev: std,
		}
	}
	return out
}

// ChannelValues returns the real part of every sample of channel c.
func ChannelValues(img *tiff.Image, c int) []float64 {
	v := make([]float64, 0, img.Width*img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v = append(v, img.Value(x, y, c, 0))
		}
	}
	return v
}

// Samples returns every scalar of img in storage order, both parts of
// complex samples included.
func Samples(img *tiff.Image) []float64 {
	lanes := img.Type.Lanes()
	v := make([]float64, 0, img.Width*img.Height*img.Channels*lanes)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			for c := 0; c < img.Channels; c++ {
				for l := 0; l < lanes; l++ {
					v = append(v, img.Value(x, y, c, l))
				}
			}
		}
	}
	return v
}
