package connector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkarpis/channelsync/internal/domain"
)

func shopifyChannel(storeURL string) *domain.SalesChannel {
	return &domain.SalesChannel{
		ID:       "ch-shopify",
		Type:     domain.ChannelTypeShopify,
		Name:     "Test Shopify",
		StoreURL: storeURL,
		APIKey:   "shpat_test_token",
	}
}

func TestShopifyFactoryValidation(t *testing.T) {
	factory := NewShopifyFactory(5 * time.Second)

	testCases := []struct {
		name    string
		channel *domain.SalesChannel
		wantErr bool
	}{
		{
			name:    "valid channel",
			channel: shopifyChannel("https://test.myshopify.com"),
			wantErr: false,
		},
		{
			name:    "missing store URL",
			channel: &domain.SalesChannel{ID: "ch-1", APIKey: "token"},
			wantErr: true,
		},
		{
			name:    "missing access token",
			channel: &domain.SalesChannel{ID: "ch-1", StoreURL: "https://test.myshopify.com"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := factory(tc.channel)
			if (err != nil) != tc.wantErr {
				t.Errorf("factory error = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}

func TestShopifyFindExactSKUMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/api/"+shopifyAPIVersion+"/variants.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Shopify-Access-Token"); got != "shpat_test_token" {
			t.Errorf("access token header = %q", got)
		}
		// Substring matches come back alongside the exact one
		json.NewEncoder(w).Encode(map[string]interface{}{
			"variants": []map[string]interface{}{
				{"id": 1, "product_id": 100, "sku": "SKU-10"},
				{"id": 2, "product_id": 200, "sku": "SKU-1"},
			},
		})
	}))
	defer srv.Close()

	conn, err := NewShopifyFactory(5 * time.Second)(shopifyChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	id, err := conn.Find(context.Background(), "SKU-1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if id != "200" {
		t.Errorf("Find = %q, want %q (the exact SKU match)", id, "200")
	}
}

func TestShopifyFindNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"variants": []interface{}{}})
	}))
	defer srv.Close()

	conn, err := NewShopifyFactory(5 * time.Second)(shopifyChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	_, err = conn.Find(context.Background(), "SKU-MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Find error = %v, want ErrNotFound", err)
	}
}

func TestShopifyCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body shopifyProductEnvelope
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body.Product.Title != "Widget" {
			t.Errorf("title = %q", body.Product.Title)
		}
		if len(body.Product.Variants) != 1 || body.Product.Variants[0].SKU != "SKU-1" {
			t.Errorf("variants = %+v", body.Product.Variants)
		}
		if body.Product.Variants[0].Price != "19.99" {
			t.Errorf("price = %q, want 19.99", body.Product.Variants[0].Price)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(shopifyProductEnvelope{Product: shopifyProduct{ID: 12345}})
	}))
	defer srv.Close()

	conn, err := NewShopifyFactory(5 * time.Second)(shopifyChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	id, err := conn.Create(context.Background(), &Payload{
		SKU:   "SKU-1",
		Title: "Widget",
		Price: 19.99,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != "12345" {
		t.Errorf("Create = %q, want 12345", id)
	}
}

func TestShopifyCreateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]interface{}{"errors": "title can't be blank"})
	}))
	defer srv.Close()

	conn, err := NewShopifyFactory(5 * time.Second)(shopifyChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	_, err = conn.Create(context.Background(), &Payload{SKU: "SKU-1"})
	if err == nil {
		t.Fatal("expected an error for HTTP 422")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("server error must not be ErrNotFound")
	}
}

func TestShopifyUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/admin/api/"+shopifyAPIVersion+"/products/777.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(shopifyProductEnvelope{Product: shopifyProduct{ID: 777}})
	}))
	defer srv.Close()

	conn, err := NewShopifyFactory(5 * time.Second)(shopifyChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	if err := conn.Update(context.Background(), "777", &Payload{SKU: "SKU-1", Title: "Widget"}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}
