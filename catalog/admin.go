package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/everbloom/storefront/core"
	"github.com/everbloom/storefront/gateway"
)

// ProductInput is the admin form payload for creating or updating a
// product. The optional image upload rides along as a multipart file
// part; plain fields are submitted as form values.
type ProductInput struct {
	Name            string
	Description     string
	RegularPrice    float64
	DiscountedPrice float64
	Stock           int
	Category        string
	Stems           int
	Color           string
	Rating          float64
}

// ImageUpload is a product picture attached to a create or update
type ImageUpload struct {
	Name    string
	Content []byte
}

func (in ProductInput) fields() map[string]string {
	fields := map[string]string{
		"name":         in.Name,
		"description":  in.Description,
		"regularPrice": strconv.FormatFloat(in.RegularPrice, 'f', 2, 64),
		"stock":        strconv.Itoa(in.Stock),
		"category":     in.Category,
		"stems":        strconv.Itoa(in.Stems),
		"color":        in.Color,
		"rating":       strconv.FormatFloat(in.Rating, 'f', 1, 64),
	}
	if in.DiscountedPrice > 0 {
		fields["discountedPrice"] = strconv.FormatFloat(in.DiscountedPrice, 'f', 2, 64)
	}
	return fields
}

func multipartFor(input ProductInput, image *ImageUpload) (*gateway.MultipartBody, error) {
	var files []gateway.FormFile
	if image != nil {
		files = append(files, gateway.FormFile{
			Field:   "image",
			Name:    image.Name,
			Content: image.Content,
		})
	}
	return gateway.NewMultipartForm(input.fields(), files...)
}

// CreateProduct submits a new product as a multipart form. The returned
// record is the server's representation, identifier included.
func (s *Store) CreateProduct(ctx context.Context, input ProductInput, image *ImageUpload) (*core.Product, error) {
	body, err := multipartFor(input, image)
	if err != nil {
		return nil, err
	}

	var created core.Product
	if err := s.gw.JSON(ctx, "/products", http.MethodPost, body, &created); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", map[string]interface{}{
		"operation":  "catalog_create_product",
		"product_id": created.ID,
		"name":       created.Name,
	})
	return &created, nil
}

// UpdateProduct submits changes to an existing product. A nil image
// leaves the stored picture untouched.
func (s *Store) UpdateProduct(ctx context.Context, id string, input ProductInput, image *ImageUpload) (*core.Product, error) {
	body, err := multipartFor(input, image)
	if err != nil {
		return nil, err
	}

	var updated core.Product
	if err := s.gw.JSON(ctx, "/products/"+id, http.MethodPut, body, &updated); err != nil {
		return nil, err
	}

	s.logger.Info("Product updated", map[string]interface{}{
		"operation":  "catalog_update_product",
		"product_id": id,
	})
	return &updated, nil
}

// DeleteProduct removes a product. Callers re-fetch the page to observe
// the change.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.gw.JSON(ctx, "/products/"+id, http.MethodDelete, nil, nil); err != nil {
		return err
	}

	s.logger.Info("Product deleted", map[string]interface{}{
		"operation":  "catalog_delete_product",
		"product_id": id,
	})
	return nil
}
