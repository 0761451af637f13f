// Package metadata caches the announced config metadata of joined
// federations. The cache is constructor-injected wherever it is needed so
// tests can seed it directly.
package metadata

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"
)

// Announcement metadata keys, as published in federation configs.
const (
	keyFederationName   = "federation_name"
	keyWelcomeMessage   = "welcome_message"
	keyVettedGateways   = "vetted_gateways"
	keyFederationExpiry = "federation_expiry_timestamp"
	keyPreviewMessage   = "preview_message"
	keyPopupEnd         = "popup_end_timestamp"
	keyPopupCountdown   = "popup_countdown_message"
)

// FederationMeta is the parsed, typed view of one federation's announced
// metadata.
type FederationMeta struct {
	Name                  string
	WelcomeMessage        string
	VettedGateways        []string
	FederationExpiry      *time.Time
	PreviewMessage        string
	PopupEndTimestamp     *time.Time
	PopupCountdownMessage string
}

// Parse converts the raw announced key/value metadata into a FederationMeta.
// Unknown keys are ignored; malformed values degrade to their zero value
// rather than failing the whole parse.
func Parse(raw map[string]string) FederationMeta {
	meta := FederationMeta{
		Name:                  raw[keyFederationName],
		WelcomeMessage:        raw[keyWelcomeMessage],
		PreviewMessage:        raw[keyPreviewMessage],
		PopupCountdownMessage: raw[keyPopupCountdown],
	}
	if v := raw[keyVettedGateways]; v != "" {
		// published as a JSON array of gateway node ids
		_ = json.Unmarshal([]byte(v), &meta.VettedGateways)
	}
	meta.FederationExpiry = parseUnixSeconds(raw[keyFederationExpiry])
	meta.PopupEndTimestamp = parseUnixSeconds(raw[keyPopupEnd])
	return meta
}

func parseUnixSeconds(v string) *time.Time {
	if v == "" {
		return nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}

// Cache holds parsed metadata per federation id. Safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	metas map[string]FederationMeta
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{metas: make(map[string]FederationMeta)}
}

// Set stores the metadata for a federation, replacing any previous entry.
func (c *Cache) Set(federationID string, meta FederationMeta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metas[federationID] = meta
}

// Get returns the cached metadata for a federation.
func (c *Cache) Get(federationID string) (FederationMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.metas[federationID]
	return meta, ok
}

// Remove drops the cached metadata for a federation.
func (c *Cache) Remove(federationID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.metas, federationID)
}

// VettedGateways returns the announced vetted gateway ids for a federation,
// or nil if the federation is unknown or announces none.
func (c *Cache) VettedGateways(federationID string) []string {
	meta, ok := c.Get(federationID)
	if !ok {
		return nil
	}
	return meta.VettedGateways
}
