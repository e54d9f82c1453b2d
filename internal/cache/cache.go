package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/linkguard/internal/model"
)

// Cache defines the interface for caching analysis results by URL
type Cache interface {
	Get(url string) (model.AnalysisResult, bool)
	Put(url string, result model.AnalysisResult)
	Sweep(now time.Time) int
	Len() int
	Clear()
}

// Clock supplies the current time to anything that ages entries
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Key generates a cache key from a URL
func Key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "linkguard:v1:" + hex.EncodeToString(hash[:])
}
