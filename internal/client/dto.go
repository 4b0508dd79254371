package client

import (
	"encoding/json"

	"github.com/LoctusTM/oskiosk-client/internal/domain"
)

// identifierEnvelope is the tagged resolver response: the type discriminator
// decides how the payload is decoded.
type identifierEnvelope struct {
	Type    domain.Kind     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type payRequest struct {
	CartID string `json:"cart_id"`
}
