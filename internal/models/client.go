package models

import (
	"fmt"
	"strings"
)

// Client represents a customer that proposals are addressed to.
type Client struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Contact  string `json:"contact,omitempty"`
}

// RestoreClient rebuilds a client read back from storage.
func RestoreClient(id uint, name, document, contact string) *Client {
	return &Client{ID: id, Name: name, Document: document, Contact: contact}
}

func (c *Client) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "(%d) %s", c.ID, c.Name)
	if c.Document != "" {
		b.WriteString(" | Doc: " + c.Document)
	}
	if c.Contact != "" {
		b.WriteString(" | Contact: " + c.Contact)
	}
	return b.String()
}
