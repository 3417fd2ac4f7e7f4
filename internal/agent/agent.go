// Package agent holds the A2A agent card.
package agent

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed agent.json
var cardJSON []byte

// EndpointPath is where the A2A JSON-RPC handler is mounted.
const EndpointPath = "/a2a/body-shape"

type Provider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

type Capabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

type Card struct {
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	URL                string       `json:"url"`
	Version            string       `json:"version"`
	Provider           Provider     `json:"provider"`
	Capabilities       Capabilities `json:"capabilities"`
	DefaultInputModes  []string     `json:"defaultInputModes"`
	DefaultOutputModes []string     `json:"defaultOutputModes"`
	Skills             []Skill      `json:"skills"`
}

// LoadAgentCard parses the embedded card and points it at publicURL.
// An empty publicURL keeps the embedded address.
func LoadAgentCard(publicURL string) (Card, error) {
	var card Card
	if err := json.Unmarshal(cardJSON, &card); err != nil {
		return Card{}, fmt.Errorf("parse agent card: %w", err)
	}
	if publicURL != "" {
		card.URL = strings.TrimRight(publicURL, "/") + EndpointPath
	}
	return card, nil
}

// AgentCardData renders the card served at /.well-known/agent.json.
func AgentCardData(publicURL string) ([]byte, error) {
	card, err := LoadAgentCard(publicURL)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(card, "", "  ")
}
