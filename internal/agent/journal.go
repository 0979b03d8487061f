package agent

import (
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/vanguard/agent/internal/command"
)

// Journal folds every emitted command into a BLAKE2b-256 digest. Two
// matches fed the same snapshots with the same seed end with equal digests.
type Journal struct {
	h       hash.Hash
	buf     []byte
	emitted int
}

func NewJournal() *Journal {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for keys longer than 64 bytes.
		panic(err)
	}
	return &Journal{h: h}
}

// Record appends one command in its wire form.
func (j *Journal) Record(cmd command.Command) {
	j.buf = cmd.AppendBinary(j.buf[:0])
	j.h.Write(j.buf)
	j.emitted++
}

func (j *Journal) Emitted() int { return j.emitted }

// Digest returns the digest of everything recorded so far.
func (j *Journal) Digest() []byte { return j.h.Sum(nil) }

func (j *Journal) DigestHex() string { return hex.EncodeToString(j.Digest()) }
