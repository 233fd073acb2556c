package dispatch

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/example/gasrapido/internal/models"
)

// PushDispatcher delivers match offers to couriers: live WS session first,
// then an HTTP push provider when configured. Both paths are best-effort.
type PushDispatcher struct {
	Endpoint string // push provider HTTP endpoint, may be empty
	Client   *http.Client
	WS       *WSRegistry
}

func NewPushDispatcher(endpoint string, ws *WSRegistry) *PushDispatcher {
	return &PushDispatcher{Endpoint: endpoint, Client: &http.Client{Timeout: 3 * time.Second}, WS: ws}
}

func (p *PushDispatcher) Offer(orderID string, offer models.MatchOffer) error {
	if p.WS != nil {
		if err := p.WS.Send(offer.CourierID, offer); err == nil {
			return nil
		}
	}
	if p.Endpoint == "" {
		return ErrNoSession
	}
	b, _ := json.Marshal(map[string]interface{}{"order_id": orderID, "offer": offer})
	_, _ = p.Client.Post(p.Endpoint, "application/json", bytes.NewReader(b))
	return nil
}
