package amqp

import (
	"encoding/json"
	"time"
)

// ReceiptAnalyzeMessage asks the worker to run text extraction for one
// receipt. It carries only the ID; the worker fetches the image from the
// database so the queue never holds payloads.
type ReceiptAnalyzeMessage struct {
	ReceiptID string    `json:"receipt_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptAnalyzeMessage(receiptID string) *ReceiptAnalyzeMessage {
	return &ReceiptAnalyzeMessage{
		ReceiptID: receiptID,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptAnalyzeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptAnalyzeMessageFromJSON(data []byte) (*ReceiptAnalyzeMessage, error) {
	var msg ReceiptAnalyzeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
