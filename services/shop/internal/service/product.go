package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/mkravets/shop-system/pkg/logging"
	"github.com/mkravets/shop-system/pkg/mykafka"
	"github.com/mkravets/shop-system/services/shop/internal/models"
	"github.com/mkravets/shop-system/services/shop/internal/repo"
)

type ProductService struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (svc *ProductService) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := svc.Repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	svc.indexProduct(ctx, p)
	svc.publishEvent(ctx, "product_created", p)
	return nil
}

func (svc *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := svc.Repo.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (svc *ProductService) ListProducts(ctx context.Context, offset, limit int) ([]models.Product, int64, error) {
	return svc.Repo.ListProducts(ctx, offset, limit)
}

func (svc *ProductService) PatchProduct(ctx context.Context, id uint, name, description string, price float64, count uint) (*models.Product, error) {
	p, err := svc.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = name
	p.Description = description
	p.Price = price
	p.Count = count
	if err := svc.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	svc.indexProduct(ctx, p)
	svc.publishEvent(ctx, "product_updated", p)
	return p, nil
}

func (svc *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	if err := svc.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrProductNotFound) {
			return fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return err
	}
	svc.removeFromIndex(ctx, id)
	svc.publishEvent(ctx, "product_deleted", &models.Product{ID: id})
	return nil
}

// indexProduct mirrors the product into elasticsearch. Best-effort: the
// catalog row is the source of truth, the index is rebuilt from it.
func (svc *ProductService) indexProduct(ctx context.Context, p *models.Product) {
	if svc.ES == nil {
		return
	}
	l := logging.FromContext(ctx)

	b, err := json.Marshal(p)
	if err != nil {
		l.Error("es marshal error", "error", err)
		return
	}
	res, err := svc.ES.Index(
		svc.Index,
		bytes.NewReader(b),
		svc.ES.Index.WithDocumentID(fmt.Sprint(p.ID)),
		svc.ES.Index.WithContext(ctx),
	)
	if err != nil {
		l.Error("es index error", "product_id", p.ID, "error", err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		l.Error("es index error", "product_id", p.ID, "status", res.Status())
	}
}

func (svc *ProductService) removeFromIndex(ctx context.Context, id uint) {
	if svc.ES == nil {
		return
	}
	l := logging.FromContext(ctx)

	res, err := svc.ES.Delete(svc.Index, fmt.Sprint(id), svc.ES.Delete.WithContext(ctx))
	if err != nil {
		l.Error("es delete error", "product_id", id, "error", err)
		return
	}
	defer res.Body.Close()
}

func (svc *ProductService) publishEvent(ctx context.Context, eventType string, p *models.Product) {
	l := logging.FromContext(ctx)

	event := map[string]interface{}{
		"event_id":   uuid.NewString(),
		"type":       eventType,
		"product_id": p.ID,
		"name":       p.Name,
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := svc.Producer.PublishEvent(pubCtx, "product_events", fmt.Sprint(p.ID), event); err != nil {
		l.Error("kafka publish error", "error", err)
	}
}
