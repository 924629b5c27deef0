package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"anggaran/internal/core"
)

// ArchiveSyncMessage announces that the archive for Month was written.
// Consumers read the archive itself from the store.
type ArchiveSyncMessage struct {
	Month     core.Month `json:"month"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewArchiveSyncMessage(month core.Month) *ArchiveSyncMessage {
	return &ArchiveSyncMessage{Month: month, Timestamp: time.Now().UTC()}
}

func (m *ArchiveSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ArchiveSyncMessageFromJSON decodes a message and checks its month.
func ArchiveSyncMessageFromJSON(data []byte) (*ArchiveSyncMessage, error) {
	var msg ArchiveSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Month.Valid() {
		return nil, fmt.Errorf("archive sync message: invalid month %q", msg.Month)
	}
	return &msg, nil
}
