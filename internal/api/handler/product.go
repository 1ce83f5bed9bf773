package handler

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	_ "golang.org/x/image/webp"

	"github.com/mkarpis/channelsync/internal/domain"
	"github.com/mkarpis/channelsync/internal/repository"
	"github.com/mkarpis/channelsync/internal/storage"
)

// maxImageSize caps uploaded product images at 10MB.
const maxImageSize = 10 << 20

// ProductHandler handles catalog product endpoints.
type ProductHandler struct {
	products *repository.ProductRepository
	storage  storage.ObjectStorage
}

// NewProductHandler creates a new product handler.
// Parameters:
//   - products: product repository.
//   - store: object storage for product images, may be nil when storage is disabled.
// Returns:
//   - *ProductHandler: initialized handler.
func NewProductHandler(products *repository.ProductRepository, store storage.ObjectStorage) *ProductHandler {
	return &ProductHandler{products: products, storage: store}
}

// CreateProductRequest represents the product creation API request.
type CreateProductRequest struct {
	SKU         string   `json:"sku" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"gte=0"`
	Currency    string   `json:"currency"`
	Images      []string `json:"images"`
	Tags        []string `json:"tags"`
	Status      string   `json:"status"`
}

// CreateProduct handles POST /api/v1/products.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	status := domain.ProductStatus(req.Status)
	if status == "" {
		status = domain.ProductStatusDraft
	}

	product := &domain.Product{
		ID:          uuid.New().String(),
		SKU:         strings.TrimSpace(req.SKU),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Images:      domain.StringArray(req.Images),
		Tags:        domain.StringArray(req.Tags),
		Status:      status,
	}
	if product.Currency == "" {
		product.Currency = "USD"
	}

	if err := h.products.Create(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProduct handles GET /api/v1/products/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListProducts handles GET /api/v1/products.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ProductHandler) ListProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	products, err := h.products.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// UploadImage handles POST /api/v1/products/:id/images. It validates the
// upload decodes as an image (jpeg, png, gif or webp), stores the bytes in
// object storage, and appends the storage key to the product's image list.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ProductHandler) UploadImage(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Object storage is not configured"})
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product: " + err.Error()})
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing image file: " + err.Error()})
		return
	}
	if fileHeader.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image exceeds 10MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload: " + err.Error()})
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image format"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = "." + format
	}
	key := fmt.Sprintf("products/%s/%s%s", product.ID, uuid.New().String(), ext)

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/" + format
	}

	if err := h.storage.Upload(c.Request.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image: " + err.Error()})
		return
	}

	product.Images = append(product.Images, key)
	if err := h.products.Update(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"key":    key,
		"url":    h.storage.GetURL(key),
		"format": format,
		"width":  cfg.Width,
		"height": cfg.Height,
	})
}
