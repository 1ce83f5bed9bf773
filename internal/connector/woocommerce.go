package connector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mkarpis/channelsync/internal/domain"
)

// WooCommerceConnector publishes products through the WooCommerce REST API
// (wc/v3) using consumer key/secret basic auth.
type WooCommerceConnector struct {
	client  *resty.Client
	baseURL string
}

// NewWooCommerceFactory returns a Factory for WooCommerce channels.
func NewWooCommerceFactory(timeout time.Duration) Factory {
	return func(ch *domain.SalesChannel) (Connector, error) {
		if ch.StoreURL == "" {
			return nil, fmt.Errorf("woocommerce channel %s has no store URL", ch.ID)
		}
		if ch.APIKey == "" || ch.APISecret == "" {
			return nil, fmt.Errorf("woocommerce channel %s has no consumer key/secret", ch.ID)
		}

		client := resty.New()
		client.SetBasicAuth(ch.APIKey, ch.APISecret)
		client.SetHeader("Content-Type", "application/json")
		client.SetTimeout(timeout)

		baseURL := strings.TrimSuffix(ch.StoreURL, "/")
		if !strings.HasPrefix(baseURL, "http") {
			baseURL = "https://" + baseURL
		}

		return &WooCommerceConnector{
			client:  client,
			baseURL: baseURL + "/wp-json/wc/v3",
		}, nil
	}
}

// WooCommerce REST API request/response structures
type wooProduct struct {
	ID           int64      `json:"id,omitempty"`
	Name         string     `json:"name"`
	SKU          string     `json:"sku"`
	Description  string     `json:"description,omitempty"`
	RegularPrice string     `json:"regular_price"`
	Images       []wooImage `json:"images,omitempty"`
	Tags         []wooTag   `json:"tags,omitempty"`
	Status       string     `json:"status,omitempty"`
}

type wooImage struct {
	Src string `json:"src"`
}

type wooTag struct {
	Name string `json:"name"`
}

func (c *WooCommerceConnector) toProduct(p *Payload) wooProduct {
	images := make([]wooImage, 0, len(p.Images))
	for _, src := range p.Images {
		images = append(images, wooImage{Src: src})
	}
	tags := make([]wooTag, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, wooTag{Name: t})
	}
	return wooProduct{
		Name:         p.Title,
		SKU:          p.SKU,
		Description:  p.Description,
		RegularPrice: strconv.FormatFloat(p.Price, 'f', 2, 64),
		Images:       images,
		Tags:         tags,
		Status:       "publish",
	}
}

// Find looks up a product by SKU. WooCommerce filters exactly on the sku
// query parameter.
func (c *WooCommerceConnector) Find(ctx context.Context, sku string) (string, error) {
	var result []wooProduct
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("sku", sku).
		SetResult(&result).
		Get(c.baseURL + "/products")
	if err != nil {
		return "", fmt.Errorf("failed to call WooCommerce API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("WooCommerce API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if len(result) == 0 {
		return "", ErrNotFound
	}
	return strconv.FormatInt(result[0].ID, 10), nil
}

// Create publishes a new product and returns the WooCommerce product ID.
func (c *WooCommerceConnector) Create(ctx context.Context, p *Payload) (string, error) {
	var result wooProduct
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(c.toProduct(p)).
		SetResult(&result).
		Post(c.baseURL + "/products")
	if err != nil {
		return "", fmt.Errorf("failed to call WooCommerce API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("WooCommerce API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if result.ID == 0 {
		return "", fmt.Errorf("WooCommerce create returned no product ID")
	}
	return strconv.FormatInt(result.ID, 10), nil
}

// Update overwrites an existing product.
func (c *WooCommerceConnector) Update(ctx context.Context, remoteID string, p *Payload) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(c.toProduct(p)).
		Put(fmt.Sprintf("%s/products/%s", c.baseURL, remoteID))
	if err != nil {
		return fmt.Errorf("failed to call WooCommerce API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("WooCommerce API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
