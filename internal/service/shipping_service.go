package service

import (
	"context"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
)

type ShippingService struct {
	repo repository.ShippingStore
}

func NewShippingService(repo repository.ShippingStore) *ShippingService {
	return &ShippingService{repo: repo}
}

func (s *ShippingService) Create(ctx context.Context, actor policy.Actor, sh *domain.Shipping) error {
	if err := policy.Authorize(actor, policy.ActionManageShipping, 0); err != nil {
		return err
	}
	if err := validateShipping(sh); err != nil {
		return err
	}
	return s.repo.CreateShipping(ctx, sh)
}

func (s *ShippingService) Get(ctx context.Context, id int64) (*domain.Shipping, error) {
	if id <= 0 {
		return nil, invalid("shipping_id", "must be a positive integer")
	}
	return s.repo.GetShipping(ctx, id)
}

func (s *ShippingService) List(ctx context.Context) ([]*domain.Shipping, error) {
	return s.repo.ListShippings(ctx)
}

func (s *ShippingService) Update(ctx context.Context, actor policy.Actor, sh *domain.Shipping) error {
	if err := policy.Authorize(actor, policy.ActionManageShipping, 0); err != nil {
		return err
	}
	if sh.ID <= 0 {
		return invalid("shipping_id", "must be a positive integer")
	}
	if err := validateShipping(sh); err != nil {
		return err
	}
	return s.repo.UpdateShipping(ctx, sh)
}

func (s *ShippingService) Delete(ctx context.Context, actor policy.Actor, id int64) error {
	if err := policy.Authorize(actor, policy.ActionManageShipping, 0); err != nil {
		return err
	}
	if id <= 0 {
		return invalid("shipping_id", "must be a positive integer")
	}
	return s.repo.DeleteShipping(ctx, id)
}

func validateShipping(sh *domain.Shipping) error {
	sh.Name = cleanText(sh.Name)
	sh.Method = cleanText(sh.Method)
	switch {
	case sh.Name == "":
		return invalid("name", "is required")
	case sh.Method == "":
		return invalid("method", "is required")
	case sh.Amount.IsNegative():
		return invalid("shipping_amount", "must not be negative")
	}
	return nil
}
