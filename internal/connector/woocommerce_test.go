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

func wooChannel(storeURL string) *domain.SalesChannel {
	return &domain.SalesChannel{
		ID:        "ch-woo",
		Type:      domain.ChannelTypeWooCommerce,
		Name:      "Test Woo",
		StoreURL:  storeURL,
		APIKey:    "ck_test",
		APISecret: "cs_test",
	}
}

func TestWooCommerceFactoryValidation(t *testing.T) {
	factory := NewWooCommerceFactory(5 * time.Second)

	testCases := []struct {
		name    string
		channel *domain.SalesChannel
		wantErr bool
	}{
		{
			name:    "valid channel",
			channel: wooChannel("https://shop.example.com"),
			wantErr: false,
		},
		{
			name:    "missing store URL",
			channel: &domain.SalesChannel{ID: "ch-1", APIKey: "ck", APISecret: "cs"},
			wantErr: true,
		},
		{
			name:    "missing consumer secret",
			channel: &domain.SalesChannel{ID: "ch-1", StoreURL: "https://shop.example.com", APIKey: "ck"},
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

func TestWooCommerceFind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wp-json/wc/v3/products" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ck_test" || pass != "cs_test" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if got := r.URL.Query().Get("sku"); got != "SKU-1" {
			t.Errorf("sku query = %q", got)
		}
		json.NewEncoder(w).Encode([]wooProduct{{ID: 314, SKU: "SKU-1"}})
	}))
	defer srv.Close()

	conn, err := NewWooCommerceFactory(5 * time.Second)(wooChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	id, err := conn.Find(context.Background(), "SKU-1")
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if id != "314" {
		t.Errorf("Find = %q, want 314", id)
	}
}

func TestWooCommerceFindNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]wooProduct{})
	}))
	defer srv.Close()

	conn, err := NewWooCommerceFactory(5 * time.Second)(wooChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	_, err = conn.Find(context.Background(), "SKU-MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Find error = %v, want ErrNotFound", err)
	}
}

func TestWooCommerceCreateAndUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/wp-json/wc/v3/products":
			var body wooProduct
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body.SKU != "SKU-1" || body.Name != "Widget" || body.RegularPrice != "19.99" {
				t.Errorf("create body = %+v", body)
			}
			if body.Status != "publish" {
				t.Errorf("status = %q, want publish", body.Status)
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(wooProduct{ID: 99})
		case r.Method == http.MethodPut && r.URL.Path == "/wp-json/wc/v3/products/99":
			json.NewEncoder(w).Encode(wooProduct{ID: 99})
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	conn, err := NewWooCommerceFactory(5 * time.Second)(wooChannel(srv.URL))
	if err != nil {
		t.Fatalf("factory failed: %v", err)
	}

	payload := &Payload{SKU: "SKU-1", Title: "Widget", Price: 19.99}

	id, err := conn.Create(context.Background(), payload)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != "99" {
		t.Errorf("Create = %q, want 99", id)
	}

	if err := conn.Update(context.Background(), id, payload); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}
