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

const shopifyAPIVersion = "2024-01"

// ShopifyConnector publishes products through the Shopify Admin REST API.
type ShopifyConnector struct {
	client  *resty.Client
	baseURL string
}

// NewShopifyFactory returns a Factory for Shopify channels.
// Parameters:
//   - timeout: per-request timeout for the underlying HTTP client.
// Returns:
//   - Factory: factory validating credentials and building connectors.
func NewShopifyFactory(timeout time.Duration) Factory {
	return func(ch *domain.SalesChannel) (Connector, error) {
		if ch.StoreURL == "" {
			return nil, fmt.Errorf("shopify channel %s has no store URL", ch.ID)
		}
		if ch.APIKey == "" {
			return nil, fmt.Errorf("shopify channel %s has no access token", ch.ID)
		}

		client := resty.New()
		client.SetHeader("X-Shopify-Access-Token", ch.APIKey)
		client.SetHeader("Content-Type", "application/json")
		client.SetTimeout(timeout)

		baseURL := strings.TrimSuffix(ch.StoreURL, "/")
		if !strings.HasPrefix(baseURL, "http") {
			baseURL = "https://" + baseURL
		}

		return &ShopifyConnector{
			client:  client,
			baseURL: fmt.Sprintf("%s/admin/api/%s", baseURL, shopifyAPIVersion),
		}, nil
	}
}

// Shopify Admin API request/response structures
type shopifyProduct struct {
	ID       int64            `json:"id,omitempty"`
	Title    string           `json:"title"`
	BodyHTML string           `json:"body_html,omitempty"`
	Tags     string           `json:"tags,omitempty"`
	Variants []shopifyVariant `json:"variants,omitempty"`
	Images   []shopifyImage   `json:"images,omitempty"`
}

type shopifyVariant struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	SKU       string `json:"sku"`
	Price     string `json:"price"`
}

type shopifyImage struct {
	Src string `json:"src"`
}

type shopifyProductEnvelope struct {
	Product shopifyProduct `json:"product"`
}

type shopifyVariantsResponse struct {
	Variants []shopifyVariant `json:"variants"`
}

type shopifyError struct {
	Errors interface{} `json:"errors,omitempty"`
}

func (c *ShopifyConnector) toProduct(p *Payload) shopifyProduct {
	images := make([]shopifyImage, 0, len(p.Images))
	for _, src := range p.Images {
		images = append(images, shopifyImage{Src: src})
	}
	return shopifyProduct{
		Title:    p.Title,
		BodyHTML: p.Description,
		Tags:     strings.Join(p.Tags, ", "),
		Variants: []shopifyVariant{{
			SKU:   p.SKU,
			Price: strconv.FormatFloat(p.Price, 'f', 2, 64),
		}},
		Images: images,
	}
}

// Find looks up a product by variant SKU.
func (c *ShopifyConnector) Find(ctx context.Context, sku string) (string, error) {
	var result shopifyVariantsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("sku", sku).
		SetResult(&result).
		Get(c.baseURL + "/variants.json")
	if err != nil {
		return "", fmt.Errorf("failed to call Shopify API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("Shopify API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	// The variants endpoint can match SKU substrings; require an exact hit.
	for _, v := range result.Variants {
		if v.SKU == sku {
			return strconv.FormatInt(v.ProductID, 10), nil
		}
	}
	return "", ErrNotFound
}

// Create publishes a new product and returns the Shopify product ID.
func (c *ShopifyConnector) Create(ctx context.Context, p *Payload) (string, error) {
	var result shopifyProductEnvelope
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(shopifyProductEnvelope{Product: c.toProduct(p)}).
		SetResult(&result).
		Post(c.baseURL + "/products.json")
	if err != nil {
		return "", fmt.Errorf("failed to call Shopify API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return "", fmt.Errorf("Shopify API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	if result.Product.ID == 0 {
		return "", fmt.Errorf("Shopify create returned no product ID")
	}
	return strconv.FormatInt(result.Product.ID, 10), nil
}

// Update overwrites an existing product.
func (c *ShopifyConnector) Update(ctx context.Context, remoteID string, p *Payload) error {
	product := c.toProduct(p)
	if id, err := strconv.ParseInt(remoteID, 10, 64); err == nil {
		product.ID = id
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(shopifyProductEnvelope{Product: product}).
		Put(fmt.Sprintf("%s/products/%s.json", c.baseURL, remoteID))
	if err != nil {
		return fmt.Errorf("failed to call Shopify API: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("Shopify API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
	}
	return nil
}
