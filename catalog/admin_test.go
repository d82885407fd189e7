package catalog

import (
	"bytes"
	"context"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/everbloom/storefront/core"
	"github.com/everbloom/storefront/gateway"
)

func newAdminStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw := gateway.New(core.APIConfig{BaseURL: server.URL, Timeout: 2 * time.Second}, core.NewMemoryStorage())
	return NewStore(gw)
}

func TestCreateProductSubmitsMultipartForm(t *testing.T) {
	var fields map[string]string
	var imageName string
	var imageContent []byte

	s := newAdminStore(t, func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("unexpected content type: %s", r.Header.Get("Content-Type"))
			return
		}

		reader := multipart.NewReader(r.Body, params["boundary"])
		fields = map[string]string{}
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			var buf bytes.Buffer
			_, _ = buf.ReadFrom(part)
			if part.FileName() != "" {
				imageName = part.FileName()
				imageContent = buf.Bytes()
			} else {
				fields[part.FormName()] = buf.String()
			}
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p-new","name":"Silk Peony","regularPrice":18}`))
	})

	input := ProductInput{
		Name:            "Silk Peony",
		Description:     "Large bloom",
		RegularPrice:    18,
		DiscountedPrice: 15,
		Stock:           40,
		Category:        "peonies",
		Stems:           1,
		Color:           "pink",
		Rating:          4.5,
	}
	image := &ImageUpload{Name: "peony.jpg", Content: []byte("jpegdata")}

	created, err := s.CreateProduct(context.Background(), input, image)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "p-new" {
		t.Errorf("server identifier not returned: %+v", created)
	}

	if fields["name"] != "Silk Peony" || fields["regularPrice"] != "18.00" {
		t.Errorf("unexpected form fields: %v", fields)
	}
	if fields["discountedPrice"] != "15.00" {
		t.Errorf("discounted price missing: %v", fields)
	}
	if fields["stock"] != "40" || fields["stems"] != "1" || fields["rating"] != "4.5" {
		t.Errorf("numeric fields misencoded: %v", fields)
	}
	if imageName != "peony.jpg" || string(imageContent) != "jpegdata" {
		t.Errorf("image upload lost: name=%q content=%q", imageName, imageContent)
	}
}

func TestCreateProductOmitsZeroDiscount(t *testing.T) {
	input := ProductInput{Name: "Silk Rose", RegularPrice: 10}
	fields := input.fields()

	if _, present := fields["discountedPrice"]; present {
		t.Error("zero discounted price must not be submitted")
	}
}

func TestUpdateProductWithoutImage(t *testing.T) {
	var method, path string
	s := newAdminStore(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"id":"p1","name":"Renamed"}`))
	})

	updated, err := s.UpdateProduct(context.Background(), "p1", ProductInput{Name: "Renamed", RegularPrice: 10}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodPut || path != "/products/p1" {
		t.Errorf("unexpected request: %s %s", method, path)
	}
	if updated.Name != "Renamed" {
		t.Errorf("unexpected result: %+v", updated)
	}
}

func TestDeleteProduct(t *testing.T) {
	var method, path string
	s := newAdminStore(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if err := s.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != http.MethodDelete || path != "/products/p1" {
		t.Errorf("unexpected request: %s %s", method, path)
	}
}
