package bridge

import (
	"os"
)

// Mailbox is the slot claim surface of the command channel. A slot is
// free exactly when its file does not exist; claiming must be
// create-if-absent so two writers can never land in the same slot.
// The terminal consumes a slot by deleting the file.
type Mailbox interface {
	// Slots is the number of rotating slots.
	Slots() int
	// TryClaim atomically creates slot i with payload. False when the
	// slot is taken or the claim failed for any other reason.
	TryClaim(slot int, payload []byte) bool
	// Read returns the current content of slot i, false when free.
	Read(slot int) ([]byte, bool)
	// Delete frees slot i. Deleting a free slot is an error.
	Delete(slot int) error
}

type fileMailbox struct {
	paths Paths
	slots int
}

// NewFileMailbox builds the production mailbox over the terminal
// AgentFiles directory.
func NewFileMailbox(paths Paths, slots int) Mailbox {
	return &fileMailbox{paths: paths, slots: slots}
}

func (m *fileMailbox) Slots() int { return m.slots }

func (m *fileMailbox) TryClaim(slot int, payload []byte) bool {
	f, err := os.OpenFile(m.paths.CommandSlot(slot), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return false
	}
	_, werr := f.Write(payload)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		// A half-written claim would wedge the slot until the terminal
		// rejects it; roll it back instead.
		_ = os.Remove(m.paths.CommandSlot(slot))
		return false
	}
	return true
}

func (m *fileMailbox) Read(slot int) ([]byte, bool) {
	raw, err := os.ReadFile(m.paths.CommandSlot(slot))
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (m *fileMailbox) Delete(slot int) error {
	return os.Remove(m.paths.CommandSlot(slot))
}
