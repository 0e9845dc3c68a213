package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ParseLoadRequest decodes a load request message body.
func ParseLoadRequest(msg LoadMessage) (LoadRequest, error) {
	var req LoadRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return LoadRequest{}, fmt.Errorf("parse load request: %w", err)
	}
	if !req.Slot.Valid() {
		return LoadRequest{}, fmt.Errorf("parse load request: %w: %d", ErrUnknownSlot, req.Slot)
	}
	if req.Folder == "" {
		return LoadRequest{}, errors.New("parse load request: folder is required")
	}
	return req, nil
}
