// Package quality classifies how reliably a document's text was extracted.
package quality

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Tier is the text-quality verdict for a document.
type Tier string

const (
	GoodText  Tier = "good-text"
	FairText  Tier = "fair-text"
	PoorText  Tier = "poor-text"
	ImageOnly Tier = "image-only"
)

// TextCapable reports whether reads and searches for this tier can use extracted text.
func (t Tier) TextCapable() bool {
	return t == GoodText || t == FairText
}

// Assessment is the result of classifying a document's extracted text.
type Assessment struct {
	Tier        Tier      `json:"type"`
	Confidence  float64   `json:"confidence"`
	TextDensity float64   `json:"textDensity"`
	WordQuality float64   `json:"wordQuality"` // average word length
	DetectedAt  time.Time `json:"detectedAt"`
}

// Stats are the raw measurements a verdict is derived from.
type Stats struct {
	TextDensity   float64
	WordCount     int
	AvgWordLength float64
	NoiseRatio    float64
}

// Measure computes text statistics. Lengths are counted in characters, not bytes.
func Measure(text string, pageCount int) Stats {
	length := utf8.RuneCountInString(text)

	words := strings.Fields(text)
	var letters int
	for _, w := range words {
		letters += utf8.RuneCountInString(w)
	}
	var avg float64
	if len(words) > 0 {
		avg = float64(letters) / float64(len(words))
	}

	var noise float64
	if length > 0 {
		alpha := 0
		for _, r := range text {
			if unicode.IsLetter(r) {
				alpha++
			}
		}
		noise = float64(length-alpha) / float64(length)
	}

	return Stats{
		TextDensity:   float64(length) / float64(max(pageCount, 1)),
		WordCount:     len(words),
		AvgWordLength: avg,
		NoiseRatio:    noise,
	}
}

// Assess classifies extracted text. It never fails.
func Assess(text string, pageCount int, now time.Time) Assessment {
	s := Measure(text, pageCount)
	return Assessment{
		Tier:        Classify(s),
		Confidence:  Confidence(s),
		TextDensity: s.TextDensity,
		WordQuality: s.AvgWordLength,
		DetectedAt:  now,
	}
}

// Fallback is the verdict used when text could not be extracted at all.
func Fallback(now time.Time) Assessment {
	return Assessment{Tier: ImageOnly, DetectedAt: now}
}

// Classify picks the first tier whose thresholds the statistics satisfy.
func Classify(s Stats) Tier {
	switch {
	case s.TextDensity >= 300 && s.WordCount >= 80 &&
		s.AvgWordLength >= 3 && s.AvgWordLength <= 15 &&
		s.NoiseRatio <= 0.25:
		return GoodText
	case s.TextDensity >= 120 && s.WordCount >= 30 &&
		s.AvgWordLength >= 2 && s.AvgWordLength <= 20 &&
		s.NoiseRatio <= 0.35:
		return FairText
	case s.TextDensity > 30:
		return PoorText
	default:
		return ImageOnly
	}
}

// Confidence sums density, word-count and word-length buckets, capped at 1.
func Confidence(s Stats) float64 {
	var c float64

	switch {
	case s.TextDensity >= 400:
		c += 0.4
	case s.TextDensity >= 150:
		c += 0.2
	case s.TextDensity >= 50:
		c += 0.1
	}

	switch {
	case s.WordCount >= 100:
		c += 0.3
	case s.WordCount >= 50:
		c += 0.2
	case s.WordCount >= 10:
		c += 0.1
	}

	switch {
	case s.AvgWordLength >= 3 && s.AvgWordLength <= 12:
		c += 0.3
	case s.AvgWordLength >= 2 && s.AvgWordLength <= 15:
		c += 0.2
	}

	return min(c, 1.0)
}
