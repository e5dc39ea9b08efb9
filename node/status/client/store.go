package client

import (
	"encoding/json"
	"fmt"

	"github.com/cleuton/arquitetura360/node/report"
	"github.com/cleuton/arquitetura360/pkg/lww"
)

type Store struct {
	client *Client
}

func NewStore(client *Client) *Store {
	return &Store{
		client: client,
	}
}

func (c *Store) Entries() ([]lww.Entry, error) {
	r, err := c.client.Request("/status/store/entries")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entries []lww.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return entries, nil
}

func (c *Store) Entry(key string) (*lww.Entry, error) {
	r, err := c.client.Request("/status/store/entries/" + key)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entry lww.Entry
	if err := json.NewDecoder(r).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &entry, nil
}

func (c *Store) Devices() ([]report.Device, error) {
	r, err := c.client.Request("/status/store/devices")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var devices []report.Device
	if err := json.NewDecoder(r).Decode(&devices); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return devices, nil
}
