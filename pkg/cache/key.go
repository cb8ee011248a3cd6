package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash computes the SHA-256 hex digest of data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// CardKeyOpts are the render inputs that distinguish one artifact from
// another. ProfileHash covers the profile JSON; ImageHash is empty when no
// image is embedded.
type CardKeyOpts struct {
	ProfileHash string  `json:"profile_hash"`
	ImageHash   string  `json:"image_hash,omitempty"`
	EffectHash  string  `json:"effect_hash"`
	Format      string  `json:"format"`
	Time        float64 `json:"time,omitempty"`
	BlurLevel   float64 `json:"blur_level,omitempty"`
	Scale       float64 `json:"scale,omitempty"`
	FPS         float64 `json:"fps,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
}

// CardKey builds the cache key for a rendered artifact: card:<sha256 of the
// distinguishing inputs>.
func CardKey(opts CardKeyOpts) string {
	data, _ := json.Marshal(opts)
	return fmt.Sprintf("card:%s", Hash(data))
}
