package client

import (
	"encoding/json"
	"fmt"

	"github.com/cleuton/arquitetura360/pkg/gossip"
)

type Gossip struct {
	client *Client
}

func NewGossip(client *Client) *Gossip {
	return &Gossip{
		client: client,
	}
}

func (c *Gossip) Peers() ([]gossip.PeerStatus, error) {
	r, err := c.client.Request("/status/gossip/peers")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var peers []gossip.PeerStatus
	if err := json.NewDecoder(r).Decode(&peers); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return peers, nil
}
