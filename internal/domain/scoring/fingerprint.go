package scoring

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/okian/techmatch/internal/domain/model"
)

// Fingerprint returns a stable digest of a (skills, requirements) pair.
// Two pairs with equal fingerprints always score identically.
func Fingerprint(skills model.SkillSet, requirements model.RequirementSet) string {
	h := sha256.New()
	var buf [9]byte

	for _, id := range skills.IDs() {
		binary.BigEndian.PutUint64(buf[:8], uint64(id))
		buf[8] = 's'
		h.Write(buf[:])
	}
	h.Write([]byte{0})
	for _, id := range requirements.Required() {
		binary.BigEndian.PutUint64(buf[:8], uint64(id))
		buf[8] = 'r'
		h.Write(buf[:])
	}
	for _, id := range requirements.Optional() {
		binary.BigEndian.PutUint64(buf[:8], uint64(id))
		buf[8] = 'o'
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
