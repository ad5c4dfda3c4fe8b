package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storefront/pkg/fetch"
	"storefront/pkg/models"
)

var (
	ErrMissing = errors.New("document not stored")
	ErrInvalid = errors.New("invalid document")
)

// Documents serves delivery.json and cart-rules.json. When a location is
// configured for a document (URL or file path) it is read from there;
// otherwise the database copy is used.
type Documents struct {
	Repo             *Repo
	Fetcher          *fetch.Fetcher
	DeliveryLocation string
	RulesLocation    string
	Logger           *zap.Logger
}

func NewDocuments(repo *Repo, fetcher *fetch.Fetcher, deliveryLoc, rulesLoc string, logger *zap.Logger) *Documents {
	if fetcher == nil {
		fetcher = fetch.New(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Documents{
		Repo:             repo,
		Fetcher:          fetcher,
		DeliveryLocation: deliveryLoc,
		RulesLocation:    rulesLoc,
		Logger:           logger,
	}
}

func (d *Documents) Delivery(ctx context.Context) (models.DeliveryConfig, error) {
	raw, err := d.raw(ctx, DocDelivery, d.DeliveryLocation)
	if err != nil {
		return models.DeliveryConfig{}, err
	}
	return DecodeDelivery(raw)
}

func (d *Documents) Rules(ctx context.Context) (models.CartRules, error) {
	raw, err := d.raw(ctx, DocRules, d.RulesLocation)
	if err != nil {
		return models.CartRules{}, err
	}
	return DecodeRules(raw)
}

// Remote reports whether name is read from an external location and is
// therefore read-only here.
func (d *Documents) Remote(name string) bool {
	return d.location(name) != ""
}

func (d *Documents) location(name string) string {
	switch name {
	case DocDelivery:
		return strings.TrimSpace(d.DeliveryLocation)
	case DocRules:
		return strings.TrimSpace(d.RulesLocation)
	}
	return ""
}

func (d *Documents) raw(ctx context.Context, name, location string) ([]byte, error) {
	if strings.TrimSpace(location) != "" {
		return d.Fetcher.Get(ctx, location)
	}
	if d.Repo == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, name)
	}
	raw, err := d.Repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissing, name)
	}
	return raw, nil
}

// Save validates and stores a document in the database.
func (d *Documents) Save(ctx context.Context, name string, raw []byte) error {
	switch name {
	case DocDelivery:
		if _, err := DecodeDelivery(raw); err != nil {
			return err
		}
	case DocRules:
		if _, err := DecodeRules(raw); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown document %q", ErrInvalid, name)
	}
	if err := d.Repo.Put(ctx, name, raw); err != nil {
		return err
	}
	d.Logger.Info("document saved", zap.String("name", name), zap.Int("bytes", len(raw)))
	return nil
}

func DecodeDelivery(raw []byte) (models.DeliveryConfig, error) {
	var cfg models.DeliveryConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: delivery: %v", ErrInvalid, err)
	}
	if cfg.BaseFee < 0 || cfg.Options.Inside.Extra < 0 || cfg.Options.Outside.Extra < 0 {
		return cfg, fmt.Errorf("%w: delivery fees must not be negative", ErrInvalid)
	}
	return cfg, nil
}

// DecodeRules fills an absent productRules map so lookups never see nil.
func DecodeRules(raw []byte) (models.CartRules, error) {
	var rules models.CartRules
	if err := json.Unmarshal(raw, &rules); err != nil {
		return rules, fmt.Errorf("%w: rules: %v", ErrInvalid, err)
	}
	if rules.ProductRules == nil {
		rules.ProductRules = map[string]models.ProductRule{}
	}
	return rules, nil
}
